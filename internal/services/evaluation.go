package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

const (
	MinScore = 1
	MaxScore = 10

	evaluationTool = "submit_evaluation"
)

type EvaluationResult struct {
	// Score is RawScore rounded and clamped into [MinScore, MaxScore].
	Score    int     `json:"score"`
	RawScore float64 `json:"rawScore"`
	Feedback string  `json:"feedback"`
}

// Rewardable reports whether the model's score earns a reward at all.
func (r *EvaluationResult) Rewardable() bool {
	return r != nil && r.RawScore >= MinScore
}

// EvaluationOutcome holds exactly one of Result or ParseError.
type EvaluationOutcome struct {
	Result     *EvaluationResult
	ParseError string
}

func (o EvaluationOutcome) OK() bool { return o.Result != nil }

type Evaluator interface {
	Evaluate(ctx context.Context, question, answer, topic string) EvaluationOutcome
}

type evaluator struct {
	log     *logger.Logger
	llm     llm.Client
	metrics *observability.Metrics
}

func NewEvaluator(baseLog *logger.Logger, client llm.Client, metrics *observability.Metrics) Evaluator {
	return &evaluator{
		log:     baseLog.With("service", "Evaluator"),
		llm:     client,
		metrics: metrics,
	}
}

func evaluationSystemPrompt(topic string) string {
	return fmt.Sprintf(`You grade a student's answer in an educational game about %s.
Score the answer from 1 (wrong or off-topic) to 10 (complete and correct).
Give one or two sentences of encouraging, specific feedback.`, topic)
}

func (e *evaluator) Evaluate(ctx context.Context, question, answer, topic string) EvaluationOutcome {
	if e.llm == nil {
		return EvaluationOutcome{ParseError: "no language model configured"}
	}
	ctx, span := observability.StartSpan(ctx, "teacher.evaluate")
	defer span.End()

	req := llm.Request{
		System: evaluationSystemPrompt(topic),
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Question: %s\n\nStudent answer: %s", question, answer),
		}},
		MaxOutputTokens: 300,
	}
	if e.llm.SupportsTools() {
		req.Tools = []llm.Tool{{
			Name:        evaluationTool,
			Description: "Submit the score and feedback for the student's answer.",
			Parameters:  evaluationSchema.raw,
		}}
		req.ForceTool = evaluationTool
	} else {
		raw, _ := json.Marshal(evaluationSchema.raw)
		req.System += llm.FencedJSONInstruction + string(raw)
	}

	start := time.Now()
	resp, err := e.llm.Complete(ctx, req)
	e.metrics.ObserveLLM("evaluation", err, time.Since(start))
	if err != nil {
		e.log.Warn("evaluation request failed", "topic", topic, "error", err)
		e.metrics.IncEvaluation("error")
		return EvaluationOutcome{ParseError: err.Error()}
	}

	out := e.parse(resp)
	if out.OK() {
		e.metrics.IncEvaluation("ok")
	} else {
		e.log.Warn("evaluation output unusable", "topic", topic, "reason", out.ParseError)
		e.metrics.IncEvaluation("parse_error")
	}
	return out
}

func (e *evaluator) parse(resp llm.Response) EvaluationOutcome {
	var raw []byte
	if e.llm.SupportsTools() {
		call, ok := resp.FindToolCall(evaluationTool)
		if !ok {
			return EvaluationOutcome{ParseError: "model did not call " + evaluationTool}
		}
		raw = call.Arguments
	} else {
		body, ok := llm.ExtractFencedJSON(resp.Text)
		if !ok {
			return EvaluationOutcome{ParseError: "no JSON block in model output"}
		}
		raw = []byte(body)
	}
	return ParseEvaluation(raw)
}

// ParseEvaluation validates a {score, feedback} document and clamps the score.
func ParseEvaluation(raw []byte) EvaluationOutcome {
	var doc struct {
		Score    float64 `json:"score"`
		Feedback string  `json:"feedback"`
	}
	if err := evaluationSchema.decodeRaw(raw, &doc); err != nil {
		return EvaluationOutcome{ParseError: err.Error()}
	}
	if math.IsNaN(doc.Score) || math.IsInf(doc.Score, 0) {
		return EvaluationOutcome{ParseError: "score is not a finite number"}
	}
	return EvaluationOutcome{Result: &EvaluationResult{
		Score:    ClampScore(doc.Score),
		RawScore: doc.Score,
		Feedback: strings.TrimSpace(doc.Feedback),
	}}
}

// ClampScore rounds s and clamps it into [MinScore, MaxScore].
func ClampScore(s float64) int {
	r := math.Round(s)
	if r < MinScore {
		return MinScore
	}
	if r > MaxScore {
		return MaxScore
	}
	return int(r)
}
