package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/kon-rad/juego-sub000/internal/data/repos"
	"github.com/kon-rad/juego-sub000/internal/data/repos/testutil"
	types "github.com/kon-rad/juego-sub000/internal/domain"
	"github.com/kon-rad/juego-sub000/internal/platform/apierr"
	"github.com/kon-rad/juego-sub000/internal/platform/llm"
	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

type teacherFixture struct {
	tx      *gorm.DB
	svc     TeacherService
	llm     *fakeLLM
	minter  *fakeMinter
	players repos.PlayerRepo
	worlds  repos.WorldRepo
}

func newTeacherFixture(t *testing.T, client *fakeLLM) *teacherFixture {
	t.Helper()
	tx := testTx(t)
	log := logger.Nop()
	f := &teacherFixture{
		tx:      tx,
		llm:     client,
		minter:  &fakeMinter{},
		players: repos.NewPlayerRepo(tx, log),
		worlds:  repos.NewWorldRepo(tx, log),
	}
	var c llm.Client
	if client != nil {
		c = client
	}
	f.svc = NewTeacherService(tx, log,
		repos.NewTeacherRepo(tx, log), f.players, f.worlds,
		NewPersonaGenerator(log, nil, nil),
		NewEvaluator(log, c, nil),
		c,
		NewPlacer(7),
		f.minter,
		nil,
	)
	return f
}

func TestSummonCreatesOneTeacherAtFirstOffset(t *testing.T) {
	f := newTeacherFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Summon(ctx, "Python", "p1", types.Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("Summon: %v", err)
	}
	if !res.Placed || res.Existing || res.Teacher == nil {
		t.Fatalf("Summon=%+v, want a newly placed teacher", res)
	}
	if res.Teacher.X != 180 || res.Teacher.Y != 100 {
		t.Fatalf("teacher at (%v,%v), want (180,100)", res.Teacher.X, res.Teacher.Y)
	}
	if res.Teacher.Name != "Python Master" || res.Teacher.CreatedBy != "p1" {
		t.Fatalf("teacher=%+v", res.Teacher)
	}

	again, err := f.svc.Summon(ctx, "pYTHON", "p2", types.Point{X: 900, Y: 900})
	if err != nil {
		t.Fatalf("Summon again: %v", err)
	}
	if !again.Existing || again.Teacher.ID != res.Teacher.ID {
		t.Fatalf("second Summon=%+v, want existing %s", again, res.Teacher.ID)
	}
	all, err := f.svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	count := 0
	for _, tt := range all {
		if strings.EqualFold(tt.Topic, "python") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("found %d python teachers, want 1", count)
	}
}

func TestSummonKeepsSeparation(t *testing.T) {
	f := newTeacherFixture(t, nil)
	ctx := context.Background()
	player := types.Point{X: 500, Y: 500}

	first, err := f.svc.Summon(ctx, "Rust", "p1", player)
	if err != nil || !first.Placed {
		t.Fatalf("Summon first=%+v err=%v", first, err)
	}
	second, err := f.svc.Summon(ctx, "Go", "p1", player)
	if err != nil || !second.Placed {
		t.Fatalf("Summon second=%+v err=%v", second, err)
	}
	a := types.Point{X: first.Teacher.X, Y: first.Teacher.Y}
	b := types.Point{X: second.Teacher.X, Y: second.Teacher.Y}
	if d := Distance(a, b); d < types.SeparationRadius {
		t.Fatalf("teachers %.1f apart, want >= %v", d, types.SeparationRadius)
	}
}

func TestSummonFailsSoftlyWhenCrowded(t *testing.T) {
	f := newTeacherFixture(t, nil)
	ctx := context.Background()
	if err := f.worlds.Save(ctx, f.tx, &types.World{Name: types.DefaultWorldName, Width: 200, Height: 200}); err != nil {
		t.Fatalf("save world: %v", err)
	}
	testutil.SeedTeacher(t, ctx, f.tx, "Blocker", 100, 100)

	res, err := f.svc.Summon(ctx, "Art", "p1", types.Point{X: 100, Y: 100})
	if err != nil {
		t.Fatalf("Summon: %v", err)
	}
	if res.Placed || res.Teacher != nil || res.Persona.Name != "Art Master" {
		t.Fatalf("Summon=%+v, want unplaced persona only", res)
	}
}

func TestCreateAndCheckPosition(t *testing.T) {
	f := newTeacherFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateTeacherInput{Topic: "History", X: 300, Y: 300, CreatedBy: "p1", Name: "Herodotus", SystemPrompt: "Teach history."})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Name != "Herodotus" || created.Color == "" {
		t.Fatalf("Create=%+v", created)
	}

	check, err := f.svc.CheckPosition(ctx, 350, 300)
	if err != nil {
		t.Fatalf("CheckPosition: %v", err)
	}
	if check.Available || check.BlockingTeacher == nil || check.BlockingTeacher.ID != created.ID || *check.Distance != 50 {
		t.Fatalf("CheckPosition=%+v", check)
	}
	if check, _ := f.svc.CheckPosition(ctx, 400, 300); !check.Available {
		t.Fatalf("point exactly 100 away should be available")
	}

	_, err = f.svc.Create(ctx, CreateTeacherInput{Topic: "Art", X: 320, Y: 320})
	if apierr.StatusOf(err) != 409 || apierr.CodeOf(err, "") != "position_occupied" {
		t.Fatalf("Create near=%v, want 409 position_occupied", err)
	}
	_, err = f.svc.Create(ctx, CreateTeacherInput{Topic: "history", X: 900, Y: 900})
	if apierr.StatusOf(err) != 409 || !errors.Is(err, repos.ErrTopicTaken) {
		t.Fatalf("Create dup topic=%v, want 409 topic taken", err)
	}
	if _, err := f.svc.Create(ctx, CreateTeacherInput{X: 1, Y: 1}); apierr.StatusOf(err) != 400 {
		t.Fatalf("Create without topic=%v, want 400", err)
	}
}

func TestGetAndDeleteTeacher(t *testing.T) {
	f := newTeacherFixture(t, nil)
	ctx := context.Background()
	seeded := testutil.SeedTeacher(t, ctx, f.tx, "Math", 700, 700)

	if _, err := f.svc.Get(ctx, "not-a-uuid"); apierr.StatusOf(err) != 400 {
		t.Fatalf("Get(bad id)=%v, want 400", err)
	}
	got, err := f.svc.Get(ctx, seeded.ID.String())
	if err != nil || got.Topic != "Math" {
		t.Fatalf("Get=%+v err=%v", got, err)
	}
	if err := f.svc.Delete(ctx, seeded.ID.String()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, seeded.ID.String()); apierr.StatusOf(err) != 404 {
		t.Fatalf("Delete twice=%v, want 404", err)
	}
}

func TestChatEvaluatesAndRewards(t *testing.T) {
	client := (&fakeLLM{tools: true}).
		text("Exactly! Lists are mutable.").
		toolCall(evaluationTool, map[string]any{"score": 11, "feedback": "Perfect answer."})
	f := newTeacherFixture(t, client)
	ctx := context.Background()

	teacher := testutil.SeedTeacher(t, ctx, f.tx, "Python", 500, 500)
	testutil.SeedPlayer(t, ctx, f.tx, "p1", 95)
	const wallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

	out, err := f.svc.Chat(ctx, teacher.ID.String(), TeacherChatInput{
		Message: "A list is an ordered, mutable collection",
		History: []ChatTurn{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "What is a Python list?"},
		},
		PlayerID:      "p1",
		WalletAddress: wallet,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	wantStates := []ChatState{StateResponding, StateEvaluating, StateRewarding, StateDone}
	if len(out.States) != len(wantStates) {
		t.Fatalf("states=%v, want %v", out.States, wantStates)
	}
	for i := range wantStates {
		if out.States[i] != wantStates[i] {
			t.Fatalf("states=%v, want %v", out.States, wantStates)
		}
	}
	if out.Evaluation == nil || out.Evaluation.Score != 10 {
		t.Fatalf("evaluation=%+v, want clamped 10", out.Evaluation)
	}
	r := out.Reward
	if r == nil || r.TokensAwarded != 10 || r.OldScore != 95 || r.NewScore != 105 || !r.NFTAwarded || !r.Minted {
		t.Fatalf("reward=%+v", r)
	}
	if len(r.TxHashes) != 2 || len(f.minter.tokens) != 1 || len(f.minter.nftURIs) != 1 {
		t.Fatalf("mints tokens=%v nfts=%v hashes=%v", f.minter.tokens, f.minter.nftURIs, r.TxHashes)
	}
	if !strings.HasPrefix(out.Response, "Exactly! Lists are mutable.") || !strings.Contains(out.Response, "10/10") || !strings.Contains(out.Response, "+10 LEARN") {
		t.Fatalf("response=%q", out.Response)
	}

	p, err := f.players.GetByID(ctx, f.tx, "p1")
	if err != nil || p.Score != 105 {
		t.Fatalf("persisted player=%+v err=%v, want score 105", p, err)
	}
}

func TestChatWithoutQuestionSkipsEvaluation(t *testing.T) {
	client := (&fakeLLM{tools: true}).text("Welcome to Python class.")
	f := newTeacherFixture(t, client)
	ctx := context.Background()
	teacher := testutil.SeedTeacher(t, ctx, f.tx, "Python", 500, 500)

	out, err := f.svc.Chat(ctx, teacher.ID.String(), TeacherChatInput{Message: "hello"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(out.States) != 2 || out.Evaluation != nil || out.Reward != nil {
		t.Fatalf("outcome=%+v, want respond-only", out)
	}
	if len(client.reqs) != 1 {
		t.Fatalf("llm calls=%d, want 1", len(client.reqs))
	}
}

func TestChatFallsBackWhenModelFails(t *testing.T) {
	client := (&fakeLLM{tools: true}).fail(errors.New("upstream down"))
	f := newTeacherFixture(t, client)
	ctx := context.Background()
	teacher := testutil.SeedTeacher(t, ctx, f.tx, "Biology", 500, 500)

	out, err := f.svc.Chat(ctx, teacher.ID.String(), TeacherChatInput{
		Message: "cells divide",
		History: []ChatTurn{{Role: "assistant", Content: "How do cells reproduce?"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !strings.Contains(out.Response, "Biology") {
		t.Fatalf("response=%q, want fallback mentioning topic", out.Response)
	}
	if out.Evaluation != nil || out.EvaluationError == "" || out.Reward != nil {
		t.Fatalf("outcome=%+v, want evaluation parse error and no reward", out)
	}
}

func TestChatLowScoreRecordsNoReward(t *testing.T) {
	client := (&fakeLLM{}).
		text("Not quite.").
		text("```json\n{\"score\": 0, \"feedback\": \"Try again\"}\n```")
	f := newTeacherFixture(t, client)
	ctx := context.Background()
	teacher := testutil.SeedTeacher(t, ctx, f.tx, "Chemistry", 500, 500)
	testutil.SeedPlayer(t, ctx, f.tx, "p9", 40)

	out, err := f.svc.Chat(ctx, teacher.ID.String(), TeacherChatInput{
		Message:  "water is fire",
		History:  []ChatTurn{{Role: "assistant", Content: "What is H2O?"}},
		PlayerID: "p9",
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Evaluation == nil || out.Reward != nil {
		t.Fatalf("outcome=%+v, want evaluation without reward", out)
	}
	p, _ := f.players.GetByID(ctx, f.tx, "p9")
	if p.Score != 40 {
		t.Fatalf("score=%d, want unchanged 40", p.Score)
	}
}
