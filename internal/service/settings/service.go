package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	"github.com/zhouzirui/manasbridge/backend/internal/model/user"
	"github.com/zhouzirui/manasbridge/backend/internal/storage"
)

// Theme is the stored colour-scheme preference. Applying it is up to the client.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrUnknownLang    = errors.New("unknown language")
)

// Preferences is a snapshot of every stored preference.
type Preferences struct {
	Persona            persona.ID    `json:"persona"`
	Theme              Theme         `json:"theme"`
	Language           user.Language `json:"language"`
	OnboardingComplete bool          `json:"onboardingComplete"`
}

// Service reads and writes preferences.
type Service struct {
	store    storage.Store
	personas persona.Store
}

// NewService creates a preference service.
func NewService(store storage.Store, personas persona.Store) *Service {
	return &Service{store: store, personas: personas}
}

// Persona returns the stored persona choice, or the default when unset or no longer known.
func (s *Service) Persona(ctx context.Context) (persona.ID, error) {
	var id persona.ID
	ok, err := s.store.Get(ctx, storage.KeyPersona, &id)
	if err != nil {
		return "", fmt.Errorf("load persona: %w", err)
	}
	if !ok {
		return persona.DefaultID, nil
	}
	if _, known := s.personas.FindByID(id); !known {
		return persona.DefaultID, nil
	}
	return id, nil
}

// SetPersona stores the persona used for the next chat turn.
func (s *Service) SetPersona(ctx context.Context, id persona.ID) error {
	if _, ok := s.personas.FindByID(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return s.store.Set(ctx, storage.KeyPersona, id)
}

// Theme returns the stored theme, light by default.
func (s *Service) Theme(ctx context.Context) (Theme, error) {
	theme := ThemeLight
	if _, err := s.store.Get(ctx, storage.KeyTheme, &theme); err != nil {
		return "", fmt.Errorf("load theme: %w", err)
	}
	return theme, nil
}

// SetTheme stores the theme preference.
func (s *Service) SetTheme(ctx context.Context, theme Theme) error {
	if !theme.valid() {
		return fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}
	return s.store.Set(ctx, storage.KeyTheme, theme)
}

// Language returns the interface language, English by default.
func (s *Service) Language(ctx context.Context) (user.Language, error) {
	lang := user.English
	if _, err := s.store.Get(ctx, storage.KeyLanguage, &lang); err != nil {
		return "", fmt.Errorf("load language: %w", err)
	}
	return lang, nil
}

// SetLanguage stores the interface language.
func (s *Service) SetLanguage(ctx context.Context, lang user.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownLang, lang)
	}
	return s.store.Set(ctx, storage.KeyLanguage, lang)
}

// OnboardingComplete reports whether the onboarding carousel was dismissed.
func (s *Service) OnboardingComplete(ctx context.Context) (bool, error) {
	var done bool
	if _, err := s.store.Get(ctx, storage.KeyOnboardingComplete, &done); err != nil {
		return false, fmt.Errorf("load onboarding flag: %w", err)
	}
	return done, nil
}

// CompleteOnboarding marks onboarding as done.
func (s *Service) CompleteOnboarding(ctx context.Context) error {
	return s.store.Set(ctx, storage.KeyOnboardingComplete, true)
}

// Snapshot reads every preference.
func (s *Service) Snapshot(ctx context.Context) (Preferences, error) {
	var (
		prefs Preferences
		err   error
	)
	if prefs.Persona, err = s.Persona(ctx); err != nil {
		return Preferences{}, err
	}
	if prefs.Theme, err = s.Theme(ctx); err != nil {
		return Preferences{}, err
	}
	if prefs.Language, err = s.Language(ctx); err != nil {
		return Preferences{}, err
	}
	if prefs.OnboardingComplete, err = s.OnboardingComplete(ctx); err != nil {
		return Preferences{}, err
	}
	return prefs, nil
}

// Patch is a partial preference update. Nil fields are left unchanged.
type Patch struct {
	Persona            *persona.ID    `json:"persona,omitempty"`
	Theme              *Theme         `json:"theme,omitempty"`
	Language           *user.Language `json:"language,omitempty"`
	OnboardingComplete *bool          `json:"onboardingComplete,omitempty"`
}

// Update validates every field of p before writing any of them.
func (s *Service) Update(ctx context.Context, p Patch) (Preferences, error) {
	if p.Persona != nil {
		if _, ok := s.personas.FindByID(*p.Persona); !ok {
			return Preferences{}, fmt.Errorf("%w: %s", ErrUnknownPersona, *p.Persona)
		}
	}
	if p.Theme != nil && !p.Theme.valid() {
		return Preferences{}, fmt.Errorf("%w: %s", ErrUnknownTheme, *p.Theme)
	}
	if p.Language != nil && !p.Language.Valid() {
		return Preferences{}, fmt.Errorf("%w: %s", ErrUnknownLang, *p.Language)
	}

	if p.Persona != nil {
		if err := s.SetPersona(ctx, *p.Persona); err != nil {
			return Preferences{}, err
		}
	}
	if p.Theme != nil {
		if err := s.SetTheme(ctx, *p.Theme); err != nil {
			return Preferences{}, err
		}
	}
	if p.Language != nil {
		if err := s.SetLanguage(ctx, *p.Language); err != nil {
			return Preferences{}, err
		}
	}
	if p.OnboardingComplete != nil {
		if err := s.store.Set(ctx, storage.KeyOnboardingComplete, *p.OnboardingComplete); err != nil {
			return Preferences{}, err
		}
	}
	return s.Snapshot(ctx)
}
