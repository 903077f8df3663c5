package ai

// WordSmoother repaces raw token deltas into word-sized chunks so the
// client renders steadily regardless of provider tokenization. A partial
// word is held back until its trailing whitespace arrives.
type WordSmoother struct {
	pending string
}

func NewWordSmoother() *WordSmoother {
	return &WordSmoother{}
}

// Feed consumes a raw delta and returns zero or more complete words, each
// including its trailing whitespace.
func (w *WordSmoother) Feed(delta string) []string {
	b := w.pending + delta
	var out []string
	start := 0
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case ' ', '\n', '\t':
			out = append(out, b[start:i+1])
			start = i + 1
		}
	}
	w.pending = b[start:]
	return out
}

// Flush returns the held-back remainder at end of stream.
func (w *WordSmoother) Flush() string {
	out := w.pending
	w.pending = ""
	return out
}
