package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// PersonaGenerator produces a teacher persona for a topic. Generate never fails:
// any model or validation problem yields FallbackPersona.
type PersonaGenerator interface {
	Generate(ctx context.Context, topic string) types.Persona
}

type personaGenerator struct {
	log     *logger.Logger
	llm     llm.Client
	metrics *observability.Metrics
}

func NewPersonaGenerator(baseLog *logger.Logger, client llm.Client, metrics *observability.Metrics) PersonaGenerator {
	return &personaGenerator{
		log:     baseLog.With("service", "PersonaGenerator"),
		llm:     client,
		metrics: metrics,
	}
}

const personaSystemPrompt = `You design friendly AI tutors for a 2D educational game.
Given a learning topic, invent a tutor character who teaches it.
- name: a short memorable character name (max 4 words) that hints at the topic.
- systemPrompt: second-person instructions for the tutor. It must teach the topic step by step, keep replies under 120 words, and end most replies with one short question that checks understanding.
- personality: one sentence describing the tutor's voice.`

func (g *personaGenerator) Generate(ctx context.Context, topic string) types.Persona {
	topic = strings.TrimSpace(topic)
	if g.llm == nil || topic == "" {
		return FallbackPersona(topic)
	}
	ctx, span := observability.StartSpan(ctx, "persona.generate")
	defer span.End()

	start := time.Now()
	obj, err := llm.GenerateJSON(ctx, g.llm, personaSystemPrompt, "Topic: "+topic, llm.JSONSchema{
		Name:   "teacher_persona",
		Schema: personaSchema.raw,
	})
	g.metrics.ObserveLLM("persona", err, time.Since(start))
	if err != nil {
		g.log.Warn("persona generation failed, using fallback", "topic", topic, "error", err)
		return FallbackPersona(topic)
	}

	var p types.Persona
	if err := personaSchema.decode(obj, &p); err != nil {
		g.log.Warn("persona output rejected, using fallback", "topic", topic, "error", err)
		return FallbackPersona(topic)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.SystemPrompt = strings.TrimSpace(p.SystemPrompt)
	p.Personality = strings.TrimSpace(p.Personality)
	if p.Name == "" || p.SystemPrompt == "" {
		return FallbackPersona(topic)
	}
	return p
}

// FallbackPersona is the deterministic "<Topic> Master" persona.
func FallbackPersona(topic string) types.Persona {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "Knowledge"
	}
	return types.Persona{
		Name: topic + " Master",
		SystemPrompt: fmt.Sprintf("You are the %s Master, a patient and encouraging teacher in an educational game. "+
			"Teach %s step by step using simple language and concrete examples. "+
			"Keep each reply under 120 words and finish with one short question that checks the student's understanding.", topic, topic),
		Personality: fmt.Sprintf("A warm, patient expert who loves explaining %s.", topic),
	}
}
