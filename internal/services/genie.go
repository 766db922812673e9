package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/ctxutil"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/promptstyle"
)

type GenieInput struct {
	Message        string
	LearningTopic  string
	History        []ChatTurn
	PlayerID       string
	PlayerPosition *types.Point
}

type GenieOutcome struct {
	Response string         `json:"response"`
	Teacher  *types.Teacher `json:"teacher,omitempty"`
	Topic    string         `json:"topic,omitempty"`
	Summoned bool           `json:"summoned"`
	Existing bool           `json:"existing"`
}

// GenieService is the guide that turns "I want to learn X" into a summoned teacher.
type GenieService interface {
	Chat(ctx context.Context, in GenieInput) (*GenieOutcome, error)
}

type genieService struct {
	db       *gorm.DB
	log      *logger.Logger
	teachers TeacherService
	players  repos.PlayerRepo
	llm      llm.Client
	metrics  *observability.Metrics
}

func NewGenieService(
	db *gorm.DB,
	baseLog *logger.Logger,
	teachers TeacherService,
	playerRepo repos.PlayerRepo,
	client llm.Client,
	metrics *observability.Metrics,
) GenieService {
	return &genieService{
		db:       db,
		log:      baseLog.With("service", "GenieService"),
		teachers: teachers,
		players:  playerRepo,
		llm:      client,
		metrics:  metrics,
	}
}

const genieSystemPrompt = `You are the Learning Genie in a 2D multiplayer game where players learn from AI teachers.
Be playful and brief (under 80 words). Help the player decide what they want to learn.
When they name a subject, tell them you can summon a teacher for it.`

const genieFallback = `I'm the Learning Genie! Tell me what you'd like to learn, for example "I want to learn Python", and I'll summon a teacher for you.`

func (s *genieService) Chat(ctx context.Context, in GenieInput) (*GenieOutcome, error) {
	message := strings.TrimSpace(in.Message)
	topic := strings.TrimSpace(in.LearningTopic)
	if message == "" && topic == "" {
		return nil, apierr.BadRequest("missing_message", "message is required")
	}
	if strings.TrimSpace(in.PlayerID) == "" {
		in.PlayerID = ctxutil.PlayerID(ctx)
	}
	if topic == "" {
		topic, _ = ExtractTopic(message)
	}
	if topic == "" {
		return &GenieOutcome{Response: s.converse(ctx, in.History, message)}, nil
	}

	pos := s.position(ctx, in)
	res, err := s.teachers.Summon(ctx, topic, strings.TrimSpace(in.PlayerID), pos)
	if err != nil {
		return nil, err
	}

	out := &GenieOutcome{Topic: topic, Teacher: res.Teacher, Existing: res.Existing}
	switch {
	case res.Existing:
		out.Response = fmt.Sprintf("%s already teaches %s! You can find them at (%d, %d). Walk over and say hello.",
			res.Teacher.Name, res.Teacher.Topic, roundCoord(res.Teacher.X), roundCoord(res.Teacher.Y))
	case res.Placed:
		out.Summoned = true
		out.Response = fmt.Sprintf("✨ I've summoned %s to teach you %s! Find them at (%d, %d).",
			res.Teacher.Name, topic, roundCoord(res.Teacher.X), roundCoord(res.Teacher.Y))
	default:
		out.Response = fmt.Sprintf("I found the perfect %s teacher, %s, but there's no room to summon them here. Move to a more open spot and ask me again!",
			topic, res.Persona.Name)
	}
	return out, nil
}

func (s *genieService) position(ctx context.Context, in GenieInput) types.Point {
	if in.PlayerPosition != nil {
		return *in.PlayerPosition
	}
	if pid := strings.TrimSpace(in.PlayerID); pid != "" && s.players != nil {
		p, err := s.players.GetByID(ctx, s.db, pid)
		if err != nil {
			s.log.Warn("player lookup failed", "player_id", pid, "error", err)
		} else if p != nil {
			return types.Point{X: p.X, Y: p.Y}
		}
	}
	return types.Point{X: types.DefaultWorldWidth / 2, Y: types.DefaultWorldHeight / 2}
}

func (s *genieService) converse(ctx context.Context, history []ChatTurn, message string) string {
	if s.llm == nil {
		return genieFallback
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		if c := strings.TrimSpace(h.Content); c != "" {
			msgs = append(msgs, llm.Message{Role: normalizeRole(h.Role), Content: c})
		}
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	start := time.Now()
	resp, err := s.llm.Complete(ctx, llm.Request{System: promptstyle.ApplySystem(genieSystemPrompt, promptstyle.ModeChat), Messages: msgs, MaxOutputTokens: 250})
	s.metrics.ObserveLLM("genie", err, time.Since(start))
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		s.log.Warn("genie reply failed, using fallback", "error", err)
		return genieFallback
	}
	return strings.TrimSpace(resp.Text)
}

func roundCoord(v float64) int {
	return int(math.Round(v))
}
