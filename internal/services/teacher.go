package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/observability"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/chain"
	"github.com/kon-rad/juego-sub000/internal/platform/ctxutil"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
	"github.com/kon-rad/juego-sub000/internal/platform/promptstyle"
)

// ChatState is a step of a teacher chat turn.
type ChatState string

const (
	StateResponding ChatState = "responding"
	StateEvaluating ChatState = "evaluating"
	StateRewarding  ChatState = "rewarding"
	StateDone       ChatState = "done"
)

var teacherColors = []string{"#8B5CF6", "#EC4899", "#F59E0B", "#10B981", "#3B82F6", "#EF4444", "#14B8A6", "#F97316"}

// ChatTurn is one line of client-held conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CreateTeacherInput struct {
	Topic        string
	X            float64
	Y            float64
	CreatedBy    string
	Name         string
	SystemPrompt string
	Personality  string
	Color        string
}

type PositionCheck struct {
	Available       bool             `json:"available"`
	BlockingTeacher *BlockingTeacher `json:"blockingTeacher,omitempty"`
	Distance        *float64         `json:"distance,omitempty"`
}

type BlockingTeacher struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Topic string    `json:"topic"`
}

type SummonResult struct {
	Teacher  *types.Teacher `json:"teacher,omitempty"`
	Persona  types.Persona  `json:"persona"`
	Existing bool           `json:"existing"`
	Placed   bool           `json:"placed"`
}

type TeacherChatInput struct {
	Message       string
	History       []ChatTurn
	PlayerID      string
	WalletAddress string
}

type TeacherChatOutcome struct {
	Response        string            `json:"response"`
	Teacher         *types.Teacher    `json:"teacher"`
	States          []ChatState       `json:"states"`
	Evaluation      *EvaluationResult `json:"evaluationResult"`
	EvaluationError string            `json:"evaluationError,omitempty"`
	Reward          *Reward           `json:"reward,omitempty"`
}

// RewardMinter is the part of the reward bridge used to pay out teacher rewards.
type RewardMinter interface {
	MintTokens(ctx context.Context, to string, amount int64) (chain.MintResult, error)
	MintTokensAndNFT(ctx context.Context, to string, amount int64, tokenURI string) ([]chain.MintResult, error)
	NFTBaseURI() string
}

type TeacherService interface {
	List(ctx context.Context) ([]*types.Teacher, error)
	Get(ctx context.Context, id string) (*types.Teacher, error)
	Create(ctx context.Context, in CreateTeacherInput) (*types.Teacher, error)
	Delete(ctx context.Context, id string) error
	CheckPosition(ctx context.Context, x, y float64) (*PositionCheck, error)
	Summon(ctx context.Context, topic, playerID string, pos types.Point) (*SummonResult, error)
	Chat(ctx context.Context, teacherID string, in TeacherChatInput) (*TeacherChatOutcome, error)
}

type teacherService struct {
	db        *gorm.DB
	log       *logger.Logger
	teachers  repos.TeacherRepo
	players   repos.PlayerRepo
	worlds    repos.WorldRepo
	personas  PersonaGenerator
	evaluator Evaluator
	llm       llm.Client
	placer    *Placer
	minter    RewardMinter
	metrics   *observability.Metrics
}

func NewTeacherService(
	db *gorm.DB,
	baseLog *logger.Logger,
	teacherRepo repos.TeacherRepo,
	playerRepo repos.PlayerRepo,
	worldRepo repos.WorldRepo,
	personas PersonaGenerator,
	evaluator Evaluator,
	client llm.Client,
	placer *Placer,
	minter RewardMinter,
	metrics *observability.Metrics,
) TeacherService {
	if placer == nil {
		placer = NewPlacer(time.Now().UnixNano())
	}
	return &teacherService{
		db:        db,
		log:       baseLog.With("service", "TeacherService"),
		teachers:  teacherRepo,
		players:   playerRepo,
		worlds:    worldRepo,
		personas:  personas,
		evaluator: evaluator,
		llm:       client,
		placer:    placer,
		minter:    minter,
		metrics:   metrics,
	}
}

func (s *teacherService) List(ctx context.Context) ([]*types.Teacher, error) {
	return s.teachers.List(ctx, s.db)
}

func (s *teacherService) Get(ctx context.Context, id string) (*types.Teacher, error) {
	tid, err := parseTeacherID(id)
	if err != nil {
		return nil, err
	}
	t, err := s.teachers.GetByID(ctx, s.db, tid)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apierr.NotFound("teacher_not_found", "teacher not found")
	}
	return t, nil
}

func (s *teacherService) Create(ctx context.Context, in CreateTeacherInput) (*types.Teacher, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, apierr.BadRequest("missing_topic", "topic is required")
	}
	if math.IsNaN(in.X) || math.IsNaN(in.Y) {
		return nil, apierr.BadRequest("invalid_position", "x and y must be numbers")
	}

	persona := types.Persona{Name: strings.TrimSpace(in.Name), SystemPrompt: strings.TrimSpace(in.SystemPrompt), Personality: strings.TrimSpace(in.Personality)}
	if persona.Name == "" || persona.SystemPrompt == "" {
		generated := s.personas.Generate(ctx, topic)
		if persona.Name == "" {
			persona.Name = generated.Name
		}
		if persona.SystemPrompt == "" {
			persona.SystemPrompt = generated.SystemPrompt
		}
		if persona.Personality == "" {
			persona.Personality = generated.Personality
		}
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = colorForTopic(topic)
	}

	t := &types.Teacher{
		Topic:        topic,
		Name:         persona.Name,
		SystemPrompt: persona.SystemPrompt,
		Personality:  persona.Personality,
		X:            in.X,
		Y:            in.Y,
		Color:        color,
		CreatedBy:    strings.TrimSpace(in.CreatedBy),
	}
	created, err := s.teachers.CreateIfClear(ctx, s.db, t, types.SeparationRadius)
	if err != nil {
		switch {
		case errors.Is(err, repos.ErrTopicTaken):
			return nil, apierr.Conflict("topic_taken", err)
		case errors.Is(err, repos.ErrPositionOccupied):
			return nil, apierr.Conflict("position_occupied", err)
		}
		return nil, err
	}
	s.log.Info("teacher created", "teacher_id", created.ID, "topic", created.Topic, "x", created.X, "y", created.Y)
	return created, nil
}

func (s *teacherService) Delete(ctx context.Context, id string) error {
	tid, err := parseTeacherID(id)
	if err != nil {
		return err
	}
	ok, err := s.teachers.Delete(ctx, s.db, tid)
	if err != nil {
		return err
	}
	if !ok {
		return apierr.NotFound("teacher_not_found", "teacher not found")
	}
	return nil
}

func (s *teacherService) CheckPosition(ctx context.Context, x, y float64) (*PositionCheck, error) {
	near, err := s.teachers.FindNearest(ctx, s.db, x, y, types.SeparationRadius)
	if err != nil {
		return nil, err
	}
	if near == nil {
		return &PositionCheck{Available: true}, nil
	}
	d := near.Distance
	return &PositionCheck{
		Available: false,
		BlockingTeacher: &BlockingTeacher{
			ID:    near.Teacher.ID,
			Name:  near.Teacher.Name,
			Topic: near.Teacher.Topic,
		},
		Distance: &d,
	}, nil
}

// Summon finds the teacher for topic or creates one near pos. When every
// candidate position is taken the result has Placed=false and no error.
func (s *teacherService) Summon(ctx context.Context, topic, playerID string, pos types.Point) (*SummonResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apierr.BadRequest("missing_topic", "topic is required")
	}
	ctx, span := observability.StartSpan(ctx, "teacher.summon", attribute.String("topic", topic))
	defer span.End()

	existing, err := s.teachers.FindByTopic(ctx, s.db, topic)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.IncSummon("existing")
		return existingResult(existing), nil
	}

	persona := s.personas.Generate(ctx, topic)
	bounds := s.bounds(ctx)
	for _, p := range s.placer.Candidates(pos, bounds) {
		t := &types.Teacher{
			Topic:        topic,
			Name:         persona.Name,
			SystemPrompt: persona.SystemPrompt,
			Personality:  persona.Personality,
			X:            p.X,
			Y:            p.Y,
			Color:        colorForTopic(topic),
			CreatedBy:    playerID,
		}
		created, err := s.teachers.CreateIfClear(ctx, s.db, t, types.SeparationRadius)
		switch {
		case err == nil:
			s.metrics.IncSummon("placed")
			s.log.Info("teacher summoned", "teacher_id", created.ID, "topic", topic, "player_id", playerID, "x", created.X, "y", created.Y)
			return &SummonResult{Teacher: created, Persona: persona, Placed: true}, nil
		case errors.Is(err, repos.ErrPositionOccupied):
			continue
		case errors.Is(err, repos.ErrTopicTaken):
			// Lost a race for the topic; hand back the winner.
			winner, ferr := s.teachers.FindByTopic(ctx, s.db, topic)
			if ferr != nil {
				return nil, ferr
			}
			if winner == nil {
				return nil, err
			}
			s.metrics.IncSummon("existing")
			return existingResult(winner), nil
		default:
			return nil, err
		}
	}

	s.metrics.IncSummon("no_room")
	s.log.Info("no free position for teacher", "topic", topic, "player_id", playerID, "x", pos.X, "y", pos.Y)
	return &SummonResult{Persona: persona}, nil
}

func existingResult(t *types.Teacher) *SummonResult {
	return &SummonResult{
		Teacher:  t,
		Persona:  types.Persona{Name: t.Name, SystemPrompt: t.SystemPrompt, Personality: t.Personality},
		Existing: true,
		Placed:   true,
	}
}

func (s *teacherService) bounds(ctx context.Context) Bounds {
	if s.worlds == nil {
		return DefaultBounds()
	}
	w, err := s.worlds.Get(ctx, s.db, types.DefaultWorldName)
	if err != nil {
		s.log.Warn("world lookup failed, using default bounds", "error", err)
		return DefaultBounds()
	}
	if w == nil || w.Width <= 0 || w.Height <= 0 {
		return DefaultBounds()
	}
	return Bounds{Width: w.Width, Height: w.Height}
}

func (s *teacherService) Chat(ctx context.Context, teacherID string, in TeacherChatInput) (*TeacherChatOutcome, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apierr.BadRequest("missing_message", "message is required")
	}
	if strings.TrimSpace(in.PlayerID) == "" {
		in.PlayerID = ctxutil.PlayerID(ctx)
	}
	t, err := s.Get(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "teacher.chat", attribute.String("teacher_id", t.ID.String()))
	defer span.End()

	out := &TeacherChatOutcome{Teacher: t, States: []ChatState{StateResponding}}
	reply := s.reply(ctx, t, in.History, message)

	var sb strings.Builder
	sb.WriteString(reply)

	if question, ok := lastTeacherQuestion(in.History); ok && s.evaluator != nil {
		out.States = append(out.States, StateEvaluating)
		eval := s.evaluator.Evaluate(ctx, question, message, t.Topic)
		if !eval.OK() {
			out.EvaluationError = eval.ParseError
		} else {
			out.Evaluation = eval.Result
			fmt.Fprintf(&sb, "\n\n📊 Evaluation: %d/10\n%s", eval.Result.Score, eval.Result.Feedback)

			if eval.Result.Rewardable() {
				out.States = append(out.States, StateRewarding)
				reward := s.reward(ctx, t, in, eval.Result)
				out.Reward = reward
				fmt.Fprintf(&sb, "\n\n🎉 +%d LEARN tokens! Total score: %d", reward.TokensAwarded, reward.NewScore)
				if reward.NFTAwarded {
					fmt.Fprintf(&sb, "\n🏅 You earned a %s badge NFT!", t.Topic)
				}
			}
		}
	}

	out.States = append(out.States, StateDone)
	out.Response = sb.String()
	return out, nil
}

func (s *teacherService) reply(ctx context.Context, t *types.Teacher, history []ChatTurn, message string) string {
	if s.llm == nil {
		return fallbackReply(t)
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		content := strings.TrimSpace(h.Content)
		if content == "" {
			continue
		}
		msgs = append(msgs, llm.Message{Role: normalizeRole(h.Role), Content: content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: message})

	start := time.Now()
	resp, err := s.llm.Complete(ctx, llm.Request{System: promptstyle.ApplySystem(t.SystemPrompt, promptstyle.ModeChat), Messages: msgs, MaxOutputTokens: 400})
	s.metrics.ObserveLLM("teacher_reply", err, time.Since(start))
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		s.log.Warn("teacher reply failed, using fallback", "teacher_id", t.ID, "error", err)
		return fallbackReply(t)
	}
	return strings.TrimSpace(resp.Text)
}

func (s *teacherService) reward(ctx context.Context, t *types.Teacher, in TeacherChatInput, res *EvaluationResult) *Reward {
	tokens := TokensFor(float64(res.Score))
	var oldScore, newScore int64
	wallet := strings.TrimSpace(in.WalletAddress)

	if pid := strings.TrimSpace(in.PlayerID); pid != "" && s.players != nil {
		score, found, err := s.players.AddScore(ctx, s.db, pid, tokens)
		switch {
		case err != nil:
			s.log.Error("persist score failed", "player_id", pid, "error", err)
		case found:
			newScore = score
			oldScore = score - tokens
		}
		if wallet == "" {
			if p, err := s.players.GetByID(ctx, s.db, pid); err == nil && p != nil {
				wallet = p.WalletAddress
			}
		}
	}
	if newScore == 0 {
		newScore = oldScore + tokens
	}

	reward := &Reward{
		TokensAwarded: tokens,
		NFTAwarded:    NFTEarned(float64(res.Score), oldScore, newScore),
		OldScore:      oldScore,
		NewScore:      newScore,
	}
	s.metrics.AddReward("tokens", float64(tokens))
	if reward.NFTAwarded {
		s.metrics.AddReward("nft", 1)
	}

	if s.minter == nil || !chain.IsValidAddress(wallet) {
		return reward
	}
	var results []chain.MintResult
	var err error
	if reward.NFTAwarded {
		results, err = s.minter.MintTokensAndNFT(ctx, wallet, tokens, BadgeURI(s.minter.NFTBaseURI(), t.Topic))
	} else {
		var r chain.MintResult
		r, err = s.minter.MintTokens(ctx, wallet, tokens)
		if err == nil {
			results = []chain.MintResult{r}
		}
	}
	for _, r := range results {
		reward.TxHashes = append(reward.TxHashes, r.TxHash)
	}
	s.metrics.IncMint("reward", err)
	if err != nil {
		s.log.Error("reward mint failed", "wallet", wallet, "tokens", tokens, "nft", reward.NFTAwarded, "error", err)
		return reward
	}
	reward.Minted = true
	return reward
}

// lastTeacherQuestion returns the most recent assistant turn if it asks something.
func lastTeacherQuestion(history []ChatTurn) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if normalizeRole(history[i].Role) != llm.RoleAssistant {
			continue
		}
		q := strings.TrimSpace(history[i].Content)
		if q == "" || !LooksLikeQuestion(q) {
			return "", false
		}
		return q, true
	}
	return "", false
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "teacher", "ai", "genie", "bot":
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}

func fallbackReply(t *types.Teacher) string {
	return fmt.Sprintf("That's a great question about %s! I'm gathering my thoughts right now. Could you tell me what you already know about it so we can start from there?", t.Topic)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// BadgeURI is the token URI of the badge minted for topic.
func BadgeURI(base, topic string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(topic), "-"), "-")
	if slug == "" {
		slug = "badge"
	}
	if base == "" {
		base = "ipfs://juego-badges/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + slug + ".json"
}

func colorForTopic(topic string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(topic)))
	return teacherColors[h.Sum32()%uint32(len(teacherColors))]
}

func parseTeacherID(id string) (uuid.UUID, error) {
	tid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_teacher_id", fmt.Errorf("invalid teacher id"))
	}
	return tid, nil
}
