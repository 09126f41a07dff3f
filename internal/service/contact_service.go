package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estatehub/bff/internal/cache"
	"estatehub/bff/internal/model"
	"estatehub/bff/internal/repository"
	"estatehub/bff/internal/state"
	"estatehub/bff/internal/upstream"
)

// ContactMessageInput is an enquiry from a listing or project page.
type ContactMessageInput struct {
	ContextKey string `validate:"required"`
	Name       string `validate:"required,max=255"`
	Email      string `validate:"required,email"`
	Phone      string `validate:"max=64"`
	Body       string `validate:"required,max=5000"`
}

type ContactService interface {
	State(ctx context.Context, session, contextKey string) (state.ContactState, error)
	Watch(session, contextKey string, fn func(state.ContactState)) (state.ContactState, func(), error)
	RevealPhone(ctx context.Context, session, contextKey string) (*cache.StoredNumbers, error)
	SendMessage(ctx context.Context, session string, in ContactMessageInput) error
	CacheSections() []CacheSection
}

type contactService struct {
	api      ListingsAPI
	contacts *cache.ContactCache
	messages repository.ContactMessageRepository // nil when Postgres is not configured
	sessions *state.Registry[state.ContactState]
	ttl      time.Duration
	validate *validator.Validate
	logger   *zap.Logger
}

func NewContactService(
	api ListingsAPI,
	contacts *cache.ContactCache,
	messages repository.ContactMessageRepository,
	sessions *state.Registry[state.ContactState],
	ttl time.Duration,
	logger *zap.Logger,
) ContactService {
	if ttl == 0 {
		ttl = cache.DefaultContactTTL
	}
	return &contactService{
		api:      api,
		contacts: contacts,
		messages: messages,
		sessions: sessions,
		ttl:      ttl,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *contactService) State(_ context.Context, session, contextKey string) (state.ContactState, error) {
	if _, _, err := ParseContextKey(contextKey); err != nil {
		return state.ContactState{}, err
	}
	return s.sessions.Slot(session).Bind(contextKey), nil
}

// Watch binds a new subscriber to the session's slot and keeps the session alive
// while it is attached. The returned func detaches it.
func (s *contactService) Watch(session, contextKey string, fn func(state.ContactState)) (state.ContactState, func(), error) {
	if _, _, err := ParseContextKey(contextKey); err != nil {
		return state.ContactState{}, func() {}, err
	}
	slot, release := s.sessions.Watch(session)
	h := slot.Attach(fn)
	initial := h.Bind(contextKey)
	return initial, func() {
		h.Close()
		release()
	}, nil
}

func (s *contactService) RevealPhone(ctx context.Context, session, contextKey string) (*cache.StoredNumbers, error) {
	kind, id, err := ParseContextKey(contextKey)
	if err != nil {
		return nil, err
	}

	h := s.sessions.Slot(session).Attach(nil)
	h.Bind(contextKey)

	if stored, ok := s.contacts.GetStoredNumbers(ctx, contextKey, s.ttl); ok {
		s.publish(h, contextKey, revealedPatch(stored.Stph2, stored.Stph3))
		return stored, nil
	}

	loading := true
	s.publish(h, contextKey, state.ContactPatch{Loading: &loading})

	numbers, err := s.api.RevealPhone(ctx, kind, id)
	if err != nil {
		loading = false
		s.publish(h, contextKey, state.ContactPatch{Loading: &loading})
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("reveal phone: %w", err)
	}

	stored := s.contacts.SetStoredNumbers(ctx, contextKey, numbers.DisplayNumber, numbers.WhatsappNumber)
	s.publish(h, contextKey, revealedPatch(stored.Stph2, stored.Stph3))
	return stored, nil
}

func (s *contactService) SendMessage(ctx context.Context, session string, in ContactMessageInput) error {
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	kind, id, err := ParseContextKey(in.ContextKey)
	if err != nil {
		return err
	}

	h := s.sessions.Slot(session).Attach(nil)
	h.Bind(in.ContextKey)

	var record *model.ContactMessage
	if s.messages != nil {
		record = &model.ContactMessage{
			ID:         uuid.New(),
			SessionID:  session,
			ContextKey: in.ContextKey,
			Name:       in.Name,
			Email:      in.Email,
			Phone:      in.Phone,
			Body:       in.Body,
			Status:     model.ContactMessagePending,
		}
		if err := s.messages.Create(ctx, record); err != nil {
			s.logger.Warn("failed to record contact message", zap.String("context_key", in.ContextKey), zap.Error(err))
			record = nil
		}
	}

	err = s.api.SendMessage(ctx, upstream.Message{
		Kind:  kind,
		ID:    id,
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
		Body:  in.Body,
	})
	s.markMessage(ctx, record, err)
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("send message: %w", err)
	}

	sent := true
	s.publish(h, in.ContextKey, state.ContactPatch{MessageSent: &sent})
	return nil
}

func (s *contactService) CacheSections() []CacheSection {
	return []CacheSection{{
		Name:  cache.ContactNamespace,
		Clear: s.contacts.ClearStoredNumbers,
		Sweep: func(ctx context.Context) int { return s.contacts.SweepExpired(ctx, s.ttl) },
	}}
}

func (s *contactService) markMessage(ctx context.Context, record *model.ContactMessage, sendErr error) {
	if record == nil {
		return
	}
	status := model.ContactMessageForwarded
	if sendErr != nil {
		status = model.ContactMessageFailed
	}
	if err := s.messages.UpdateStatus(ctx, record.ID, status); err != nil {
		s.logger.Warn("failed to update contact message status", zap.String("id", record.ID.String()), zap.Error(err))
	}
}

// publish applies patch for the handle's context. Another page taking over the
// session in the meantime is logged and ignored.
func (s *contactService) publish(h *state.Handle[state.ContactState], contextKey string, patch state.ContactPatch) {
	if err := h.Update(patch.Apply); err != nil {
		s.logger.Warn("contact state update dropped", zap.String("context_key", contextKey), zap.Error(err))
	}
}

func revealedPatch(phone, whatsapp string) state.ContactPatch {
	show, loading := true, false
	return state.ContactPatch{
		PhoneNumber:    &phone,
		WhatsappNumber: &whatsapp,
		ShowNumber:     &show,
		Loading:        &loading,
	}
}
