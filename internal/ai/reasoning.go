package ai

import "strings"

// TagSplitter separates a tagged reasoning trace (e.g. <think>...</think>)
// from the surrounding text in an incremental stream. Tags may arrive split
// across arbitrary delta boundaries, so the splitter holds back any suffix
// that could still turn out to be a tag prefix.
type TagSplitter struct {
	open   string
	close  string
	buf    string
	inside bool
	closed bool
}

func NewTagSplitter(tag string) *TagSplitter {
	return &TagSplitter{
		open:  "<" + tag + ">",
		close: "</" + tag + ">",
	}
}

// Feed consumes a raw delta and returns the text and reasoning portions
// that are safe to emit so far.
func (s *TagSplitter) Feed(delta string) (text, reasoning string) {
	s.buf += delta
	for s.buf != "" {
		if s.closed {
			text += s.buf
			s.buf = ""
			break
		}
		if !s.inside {
			if i := strings.Index(s.buf, s.open); i >= 0 {
				text += s.buf[:i]
				s.buf = s.buf[i+len(s.open):]
				s.inside = true
				continue
			}
			hold := tagPrefixLen(s.buf, s.open)
			text += s.buf[:len(s.buf)-hold]
			s.buf = s.buf[len(s.buf)-hold:]
			break
		}
		if i := strings.Index(s.buf, s.close); i >= 0 {
			reasoning += s.buf[:i]
			s.buf = s.buf[i+len(s.close):]
			s.inside = false
			s.closed = true
			continue
		}
		hold := tagPrefixLen(s.buf, s.close)
		reasoning += s.buf[:len(s.buf)-hold]
		s.buf = s.buf[len(s.buf)-hold:]
		break
	}
	return text, reasoning
}

// Flush releases whatever is still held back once the stream has ended.
// An unclosed tag counts as reasoning.
func (s *TagSplitter) Flush() (text, reasoning string) {
	out := s.buf
	s.buf = ""
	if s.inside {
		return "", out
	}
	return out, ""
}

// tagPrefixLen returns the length of the longest suffix of s that is a
// proper prefix of tag.
func tagPrefixLen(s, tag string) int {
	max := len(tag) - 1
	if max > len(s) {
		max = len(s)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(tag, s[len(s)-n:]) {
			return n
		}
	}
	return 0
}

// ExtractReasoning splits a complete response into content and reasoning
// for a given tag. Used on non-streaming paths.
func ExtractReasoning(raw, tag string) (content, reasoning string) {
	open := "<" + tag + ">"
	cls := "</" + tag + ">"
	start := strings.Index(raw, open)
	if start < 0 {
		return raw, ""
	}
	rest := raw[start+len(open):]
	end := strings.Index(rest, cls)
	if end < 0 {
		return raw[:start], rest
	}
	return raw[:start] + rest[end+len(cls):], rest[:end]
}
