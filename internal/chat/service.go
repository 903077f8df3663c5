package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/reldane/chatrelay/internal/ai"
	"github.com/reldane/chatrelay/internal/common"
	"github.com/reldane/chatrelay/internal/tools"
	"go.uber.org/zap"
)

// maxToolSteps caps provider round trips per request so a tool-calling
// model cannot loop unboundedly.
const maxToolSteps = 5

type Service struct {
	store    Store
	registry *ai.Registry
	catalog  *ai.Catalog
	tools    *tools.Registry
	titles   TitlePublisher // nil disables async title refinement
	log      *zap.Logger
}

func NewService(store Store, registry *ai.Registry, catalog *ai.Catalog, toolReg *tools.Registry, titles TitlePublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if toolReg == nil {
		toolReg = tools.NewRegistry()
	}
	return &Service{
		store:    store,
		registry: registry,
		catalog:  catalog,
		tools:    toolReg,
		titles:   titles,
		log:      log,
	}
}

type StreamRequest struct {
	UserID     uint64
	ChatID     string
	ModelID    string
	Transcript []ai.Message
}

// StreamChat runs the relay. The synchronous phase resolves the model,
// validates the transcript, ensures the chat exists and durably appends
// the user message; any error here maps to a pre-stream HTTP status.
// The returned channels then carry the provider stream; both are closed
// when the exchange ends. The sanitized assistant output is persisted
// after stream completion, best effort.
func (s *Service) StreamChat(ctx context.Context, req StreamRequest) (<-chan ai.StreamEvent, <-chan error, error) {
	cfg, err := s.catalog.Resolve(req.ModelID)
	if err != nil {
		return nil, nil, err
	}

	call, err := AssemblePrompt(req.Transcript, cfg, s.tools.Specs())
	if err != nil {
		return nil, nil, err
	}

	provider, err := s.registry.Get(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	sp, ok := provider.(ai.StreamProvider)
	if !ok {
		return nil, nil, errors.New("chat: provider does not support streaming")
	}

	userMsg := req.Transcript[len(req.Transcript)-1]

	if err := s.ensureChat(ctx, req, userMsg.Content); err != nil {
		return nil, nil, err
	}

	// The user message is persisted before the provider call so a later
	// failure never loses the user's input.
	if err := s.store.SaveMessages(ctx, []*Message{{
		MessageID: uuid.NewString(),
		ChatID:    req.ChatID,
		Role:      ai.RoleUser,
		Content:   userMsg.Content,
	}}); err != nil {
		return nil, nil, err
	}

	events := make(chan ai.StreamEvent, 16)
	errs := make(chan error, 1)
	go s.run(ctx, sp, cfg, call, req, events, errs)
	return events, errs, nil
}

// ensureChat lazily creates the chat record with a derived title and
// enqueues a title refinement job. An existing chat owned by someone else
// is reported as not found.
func (s *Service) ensureChat(ctx context.Context, req StreamRequest, firstUserMessage string) error {
	existing, err := s.store.GetChatByID(ctx, req.ChatID)
	if err == nil {
		if existing.UserID != req.UserID {
			return ErrNotFound
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := s.store.SaveChat(ctx, &Chat{
		ChatID: req.ChatID,
		UserID: req.UserID,
		Title:  DeriveTitle(firstUserMessage),
	}); err != nil {
		return err
	}

	if s.titles == nil {
		return nil
	}
	jobID, err := common.NewULID()
	if err != nil {
		s.log.Warn("title job id", zap.Error(err))
		return nil
	}
	job := &TitleJob{
		ID:     jobID,
		ChatID: req.ChatID,
		UserID: req.UserID,
		Prompt: firstUserMessage,
		Status: JobQueued,
	}
	if err := s.store.CreateTitleJob(ctx, job); err != nil {
		s.log.Warn("create title job", zap.String("chat_id", req.ChatID), zap.Error(err))
		return nil
	}
	if err := s.titles.PublishTitleJob(ctx, job.ID); err != nil {
		s.log.Warn("publish title job", zap.String("chat_id", req.ChatID), zap.Error(err))
	}
	return nil
}

// run drives the bounded tool-use loop and interleaves model deltas and
// tool progress onto the single outbound stream in production order.
func (s *Service) run(ctx context.Context, sp ai.StreamProvider, cfg ai.ChatModelConfig, call ai.Call, req StreamRequest, out chan<- ai.StreamEvent, errsOut chan<- error) {
	defer close(out)
	defer close(errsOut)

	emit := func(ev ai.StreamEvent) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	smoother := ai.NewWordSmoother()
	var splitter *ai.TagSplitter
	if cfg.ReasoningTag != "" {
		splitter = ai.NewTagSplitter(cfg.ReasoningTag)
	}

	var responses []ai.Message

	for step := 0; step < maxToolSteps; step++ {
		pEvents, pErrs := sp.StreamChat(ctx, call)

		var curText, curReasoning strings.Builder
		var calls []ai.ToolCall

		emitText := func(raw string) {
			text, reasoning := raw, ""
			if splitter != nil {
				text, reasoning = splitter.Feed(raw)
			}
			if reasoning != "" {
				curReasoning.WriteString(reasoning)
				emit(ai.StreamEvent{Type: ai.EventReasoning, Text: reasoning})
			}
			if text != "" {
				curText.WriteString(text)
				for _, word := range smoother.Feed(text) {
					emit(ai.StreamEvent{Type: ai.EventText, Text: word})
				}
			}
		}

		for ev := range pEvents {
			switch ev.Type {
			case ai.EventText:
				emitText(ev.Text)
			case ai.EventReasoning:
				curReasoning.WriteString(ev.Text)
				emit(ev)
			case ai.EventToolCall:
				calls = append(calls, *ev.ToolCall)
				emit(ev)
			}
		}

		// Release anything still held back by the transforms.
		if splitter != nil {
			text, reasoning := splitter.Flush()
			if reasoning != "" {
				curReasoning.WriteString(reasoning)
				emit(ai.StreamEvent{Type: ai.EventReasoning, Text: reasoning})
			}
			if text != "" {
				curText.WriteString(text)
				for _, word := range smoother.Feed(text) {
					emit(ai.StreamEvent{Type: ai.EventText, Text: word})
				}
			}
		}
		if tail := smoother.Flush(); tail != "" {
			emit(ai.StreamEvent{Type: ai.EventText, Text: tail})
		}

		// Providers close the error channel after the event channel, so
		// this receive observes either the failure or the close.
		if err := <-pErrs; err != nil {
			errsOut <- err
			return
		}

		asst := ai.Message{
			Role:      ai.RoleAssistant,
			Content:   curText.String(),
			Reasoning: curReasoning.String(),
			ToolCalls: calls,
		}
		responses = append(responses, asst)

		if len(calls) == 0 {
			break
		}

		call.Messages = append(call.Messages, asst)
		for i := range calls {
			tcall := calls[i]
			result, err := s.tools.Invoke(ctx, tcall, tools.Context{
				UserID: req.UserID,
				ChatID: req.ChatID,
				Emit:   emit,
			})
			if err != nil {
				s.log.Warn("tool failed",
					zap.String("chat_id", req.ChatID),
					zap.String("tool", tcall.Name),
					zap.Error(err))
				result = "error: " + err.Error()
			}
			emit(ai.StreamEvent{Type: ai.EventToolResult, Text: result, ToolCall: &tcall})

			toolMsg := ai.Message{Role: ai.RoleTool, ToolCallID: tcall.ID, Content: result}
			responses = append(responses, toolMsg)
			call.Messages = append(call.Messages, toolMsg)
		}
	}

	// Best-effort persistence of the assistant turn: a failure here is
	// logged and swallowed, never surfaced to the caller whose stream has
	// already completed.
	sanitized := SanitizeResponse(responses)
	rows := make([]*Message, 0, len(sanitized))
	for _, m := range sanitized {
		rows = append(rows, &Message{
			MessageID: uuid.NewString(),
			ChatID:    req.ChatID,
			Role:      m.Role,
			Content:   m.Content,
			Reasoning: m.Reasoning,
		})
	}
	if len(rows) == 0 {
		return
	}
	if err := s.store.SaveMessages(ctx, rows); err != nil {
		s.log.Error("failed to save chat",
			zap.String("chat_id", req.ChatID),
			zap.Error(err))
	}
}

// ListMessages returns a chat's persisted history in append order.
func (s *Service) ListMessages(ctx context.Context, userID uint64, chatID string, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if err := s.validateOwner(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, chatID, limit, beforeID)
}

func (s *Service) DeleteChat(ctx context.Context, userID uint64, chatID string) error {
	if err := s.validateOwner(ctx, userID, chatID); err != nil {
		return err
	}
	return s.store.DeleteChatByID(ctx, chatID)
}

func (s *Service) validateOwner(ctx context.Context, userID uint64, chatID string) error {
	c, err := s.store.GetChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return ErrNotFound
	}
	return nil
}

// RefineTitle is the worker entry point: it asks the title model for a
// concise title and replaces the derived one. Failures keep the derived
// title.
func (s *Service) RefineTitle(ctx context.Context, jobID string) error {
	_ = s.store.MarkTitleJobRunning(ctx, jobID)

	job, err := s.store.GetTitleJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	cfg, err := s.catalog.Resolve(ai.TitleModel)
	if err != nil {
		_ = s.store.MarkTitleJobFailed(ctx, jobID, err.Error())
		return err
	}
	provider, err := s.registry.Get(cfg.Provider, cfg.Model)
	if err != nil {
		_ = s.store.MarkTitleJobFailed(ctx, jobID, err.Error())
		return err
	}

	msg, err := provider.Chat(ctx, TitleCall(job.Prompt))
	if err != nil {
		_ = s.store.MarkTitleJobFailed(ctx, jobID, err.Error())
		return err
	}

	title := DeriveTitle(msg.Content)
	if err := s.store.UpdateChatTitle(ctx, job.ChatID, title); err != nil {
		_ = s.store.MarkTitleJobFailed(ctx, jobID, err.Error())
		return err
	}
	return s.store.MarkTitleJobSucceeded(ctx, jobID)
}
