package services

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

//go:embed seed/characters.yaml
var characterSeedYAML []byte

const (
	defaultVoiceProvider = "11labs"
	defaultVoiceModel    = "gpt-4o-mini"
	defaultCharColor     = "#6366F1"
)

// AICharacterInput carries optional fields; nil means "leave unchanged" on update.
type AICharacterInput struct {
	Name          *string  `json:"name"`
	Personality   *string  `json:"personality"`
	SystemPrompt  *string  `json:"systemPrompt"`
	FirstMessage  *string  `json:"firstMessage"`
	VoiceProvider *string  `json:"voiceProvider"`
	VoiceID       *string  `json:"voiceId"`
	Model         *string  `json:"model"`
	Color         *string  `json:"color"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	IsActive      *bool    `json:"isActive"`
}

type SeedResult struct {
	Created []*types.AICharacter `json:"created"`
	Skipped []string             `json:"skipped"`
}

type AICharacterService interface {
	List(ctx context.Context, activeOnly bool) ([]*types.AICharacter, error)
	Get(ctx context.Context, id string) (*types.AICharacter, error)
	Create(ctx context.Context, in AICharacterInput) (*types.AICharacter, error)
	Update(ctx context.Context, id string, in AICharacterInput) (*types.AICharacter, error)
	Delete(ctx context.Context, id string) error
	Seed(ctx context.Context) (*SeedResult, error)
}

type aiCharacterService struct {
	db    *gorm.DB
	log   *logger.Logger
	chars repos.AICharacterRepo
}

func NewAICharacterService(db *gorm.DB, baseLog *logger.Logger, charRepo repos.AICharacterRepo) AICharacterService {
	return &aiCharacterService{
		db:    db,
		log:   baseLog.With("service", "AICharacterService"),
		chars: charRepo,
	}
}

func (s *aiCharacterService) List(ctx context.Context, activeOnly bool) ([]*types.AICharacter, error) {
	return s.chars.List(ctx, s.db, activeOnly)
}

func (s *aiCharacterService) Get(ctx context.Context, id string) (*types.AICharacter, error) {
	cid, err := parseCharacterID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.chars.GetByID(ctx, s.db, cid)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("character_not_found", "character not found")
	}
	return c, nil
}

func (s *aiCharacterService) Create(ctx context.Context, in AICharacterInput) (*types.AICharacter, error) {
	name := strings.TrimSpace(deref(in.Name))
	if name == "" {
		return nil, apierr.BadRequest("missing_name", "name is required")
	}
	if strings.TrimSpace(deref(in.SystemPrompt)) == "" {
		return nil, apierr.BadRequest("missing_system_prompt", "systemPrompt is required")
	}
	existing, err := s.chars.GetByName(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apierr.Conflict("character_exists", fmt.Errorf("a character named %q already exists", name))
	}

	c := &types.AICharacter{
		Name:          name,
		Personality:   deref(in.Personality),
		SystemPrompt:  strings.TrimSpace(deref(in.SystemPrompt)),
		FirstMessage:  deref(in.FirstMessage),
		VoiceProvider: orDefault(deref(in.VoiceProvider), defaultVoiceProvider),
		VoiceID:       deref(in.VoiceID),
		Model:         orDefault(deref(in.Model), defaultVoiceModel),
		Color:         orDefault(deref(in.Color), defaultCharColor),
		IsActive:      true,
	}
	if in.X != nil {
		c.X = *in.X
	}
	if in.Y != nil {
		c.Y = *in.Y
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	created, err := s.chars.Create(ctx, s.db, []*types.AICharacter{c})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *aiCharacterService) Update(ctx context.Context, id string, in AICharacterInput) (*types.AICharacter, error) {
	cid, err := parseCharacterID(id)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apierr.BadRequest("missing_name", "name cannot be empty")
		}
		updates["name"] = name
	}
	setString(updates, "personality", in.Personality)
	setString(updates, "system_prompt", in.SystemPrompt)
	setString(updates, "first_message", in.FirstMessage)
	setString(updates, "voice_provider", in.VoiceProvider)
	setString(updates, "voice_id", in.VoiceID)
	setString(updates, "model", in.Model)
	setString(updates, "color", in.Color)
	if in.X != nil {
		updates["x"] = *in.X
	}
	if in.Y != nil {
		updates["y"] = *in.Y
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	c, err := s.chars.Update(ctx, s.db, cid, updates)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("character_not_found", "character not found")
	}
	return c, nil
}

func (s *aiCharacterService) Delete(ctx context.Context, id string) error {
	cid, err := parseCharacterID(id)
	if err != nil {
		return err
	}
	ok, err := s.chars.Delete(ctx, s.db, cid)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("character_not_found", "character not found")
	}
	return nil
}

// Seed inserts the bundled characters whose names are not taken yet.
func (s *aiCharacterService) Seed(ctx context.Context) (*SeedResult, error) {
	seed, err := LoadCharacterSeed()
	if err != nil {
		return nil, err
	}
	res := &SeedResult{Created: []*types.AICharacter{}, Skipped: []string{}}
	var fresh []*types.AICharacter
	for _, c := range seed {
		existing, err := s.chars.GetByName(ctx, s.db, c.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			res.Skipped = append(res.Skipped, c.Name)
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) > 0 {
		created, err := s.chars.Create(ctx, s.db, fresh)
		if err != nil {
			return nil, err
		}
		res.Created = created
	}
	s.log.Info("ai characters seeded", "created", len(res.Created), "skipped", len(res.Skipped))
	return res, nil
}

// LoadCharacterSeed parses the bundled character list.
func LoadCharacterSeed() ([]*types.AICharacter, error) {
	var doc struct {
		Characters []*types.AICharacter `yaml:"characters"`
	}
	if err := yaml.Unmarshal(characterSeedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse character seed: %w", err)
	}
	for _, c := range doc.Characters {
		c.VoiceProvider = orDefault(c.VoiceProvider, defaultVoiceProvider)
		c.Model = orDefault(c.Model, defaultVoiceModel)
		c.Color = orDefault(c.Color, defaultCharColor)
	}
	return doc.Characters, nil
}

func parseCharacterID(id string) (uuid.UUID, error) {
	cid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, apierr.BadRequest("invalid_character_id", "invalid character id")
	}
	return cid, nil
}

func setString(updates map[string]any, column string, v *string) {
	if v != nil {
		updates[column] = strings.TrimSpace(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
