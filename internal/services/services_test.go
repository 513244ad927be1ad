package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"pollbox/config"
	"pollbox/internal/cache"
	"pollbox/internal/domain/poll"
	"pollbox/internal/ratelimit"
	"pollbox/internal/repository"
	"pollbox/internal/validation"
	"pollbox/pkg/database"
	pollbox_errors "pollbox/pkg/errors"
	"pollbox/pkg/logger"

	"github.com/google/uuid"
)

var (
	errInjected     = errors.New("injected failure")
	errCompensation = errors.New("compensation failed")
)

// flakyPolls fails every Delete while failDeletes is set.
type flakyPolls struct {
	repository.PollRepository
	failDeletes bool
}

func (f *flakyPolls) Delete(ctx context.Context, id int64) error {
	if f.failDeletes {
		return errCompensation
	}
	return f.PollRepository.Delete(ctx, id)
}

// blindVotes reports no existing votes while blind is set, so only the unique
// index stands between an actor and a second single-choice vote.
type blindVotes struct {
	repository.VoteRepository
	blind bool
}

func (b *blindVotes) Exists(ctx context.Context, pollID int64, userID uuid.UUID) (bool, error) {
	if b.blind {
		return false, nil
	}
	return b.VoteRepository.Exists(ctx, pollID, userID)
}

// flakyOptions fails the next failCreates calls to CreateMany.
type flakyOptions struct {
	repository.OptionRepository
	mu          sync.Mutex
	failCreates int
}

func (f *flakyOptions) CreateMany(ctx context.Context, options []poll.Option) error {
	f.mu.Lock()
	fail := f.failCreates > 0
	if fail {
		f.failCreates--
	}
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.OptionRepository.CreateMany(ctx, options)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[int64][][]byte
}

func (p *recordingPublisher) PublishResults(_ context.Context, pollID int64, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[int64][][]byte)
	}
	p.messages[pollID] = append(p.messages[pollID], payload)
	return nil
}

type fixture struct {
	polls     *flakyPolls
	options   *flakyOptions
	votes     *blindVotes
	profiles  repository.ProfileRepository
	cache     *cache.Memory
	limiter   *ratelimit.Memory
	publisher *recordingPublisher

	pollSvc    *PollService
	voteSvc    *VoteService
	querySvc   *PollQueryService
	profileSvc *ProfileService
}

func newFixture(t *testing.T, policies ratelimit.Policies) *fixture {
	t.Helper()
	cfg := &config.Config{DBDriver: database.DriverSQLite, DBPath: filepath.Join(t.TempDir(), "services.db")}
	db, err := database.Connect(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		polls:     &flakyPolls{PollRepository: repository.NewPollRepository(db)},
		options:   &flakyOptions{OptionRepository: repository.NewOptionRepository(db)},
		votes:     &blindVotes{VoteRepository: repository.NewVoteRepository(db)},
		profiles:  repository.NewProfileRepository(db),
		cache:     cache.NewMemory(nil),
		limiter:   ratelimit.NewMemory(nil),
		publisher: &recordingPublisher{},
	}
	ttls := DefaultCacheTTLs()
	log := logger.NewNop()
	f.pollSvc = NewPollService(f.polls, f.options, f.votes, f.cache, f.limiter, policies, log)
	f.voteSvc = NewVoteService(f.polls, f.options, f.votes, f.cache, f.limiter, policies, ttls, f.publisher, log)
	f.querySvc = NewPollQueryService(f.polls, f.options, f.votes, f.cache, ttls, log)
	f.profileSvc = NewProfileService(f.profiles, f.polls, f.options, f.votes, f.cache, f.limiter, policies, ttls, log)
	return f
}

func pollInput(title string, allowMulti bool, texts ...string) validation.Record {
	options := make([]any, len(texts))
	for i, text := range texts {
		options[i] = map[string]any{"text": text, "position": i}
	}
	return validation.Record{"title": title, "allow_multi": allowMulti, "options": options}
}

func voteInput(pollID, optionID int64) validation.Record {
	return validation.Record{"poll_id": pollID, "option_id": optionID}
}

func (f *fixture) createPoll(t *testing.T, owner uuid.UUID, allowMulti bool, texts ...string) PollView {
	t.Helper()
	view, err := f.pollSvc.Create(context.Background(), owner, pollInput("Lunch?", allowMulti, texts...))
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	return view
}

func TestPollCreate(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	owner := uuid.New()

	view := f.createPoll(t, owner, false, "Pizza", "Tacos", "Sushi")
	if view.ID <= 0 || view.UserID != owner || len(view.Options) != 3 {
		t.Fatalf("view = %+v", view)
	}
	for i, o := range view.Options {
		if o.Position != i || o.ID <= 0 {
			t.Errorf("option %d = %+v", i, o)
		}
	}

	stored, err := f.options.ListByPoll(context.Background(), view.ID)
	if err != nil || len(stored) != 3 {
		t.Fatalf("stored options = %v, %v", stored, err)
	}
}

func TestPollCreateRequiresActor(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	_, err := f.pollSvc.Create(context.Background(), uuid.Nil, pollInput("Lunch?", false, "a", "b"))
	if !errors.Is(err, pollbox_errors.ErrAuthenticationRequired) {
		t.Fatalf("err = %v, want ErrAuthenticationRequired", err)
	}
}

func TestPollCreateValidationStoresNothing(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()

	_, err := f.pollSvc.Create(ctx, uuid.New(), validation.Record{"title": "", "options": []any{}})
	if !errors.Is(err, pollbox_errors.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if len(pollbox_errors.Violations(err)) < 2 {
		t.Errorf("violations = %v, want every field reported", pollbox_errors.Violations(err))
	}
	if _, total, _ := f.polls.List(ctx, 1, 10); total != 0 {
		t.Errorf("total = %d, want 0", total)
	}
}

func TestPollCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()

	eleven := make([]string, 11)
	for i := range eleven {
		eleven[i] = fmt.Sprintf("option %d", i)
	}

	tests := []struct {
		name string
		raw  validation.Record
	}{
		{"too many options", pollInput("Lunch?", false, eleven...)},
		{"one option", pollInput("Lunch?", false, "only")},
		{"no options", pollInput("Lunch?", false)},
		{"blank title", pollInput("   ", false, "a", "b")},
		{"blank option", pollInput("Lunch?", false, "a", "  ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.pollSvc.Create(ctx, uuid.New(), tt.raw)
			if !errors.Is(err, pollbox_errors.ErrValidationFailed) {
				t.Fatalf("err = %v, want ErrValidationFailed", err)
			}
			if _, total, _ := f.polls.List(ctx, 1, 10); total != 0 {
				t.Errorf("total = %d, want 0", total)
			}
		})
	}
}

func TestPollCreateSanitizesText(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()

	in := pollInput("  <Lunch>?  ", false, "<Pizza>", "Tacos onclick=alert(1)", "javascript:Sushi")
	view, err := f.pollSvc.Create(ctx, uuid.New(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"Pizza", "Tacos alert(1)", "Sushi"}
	if view.Title != "Lunch?" {
		t.Errorf("title = %q, want Lunch?", view.Title)
	}
	for i, o := range view.Options {
		if o.Text != want[i] {
			t.Errorf("returned option %d = %q, want %q", i, o.Text, want[i])
		}
	}

	stored, _ := f.options.ListByPoll(ctx, view.ID)
	for i, o := range stored {
		if o.Text != want[i] {
			t.Errorf("stored option %d = %q, want %q", i, o.Text, want[i])
		}
	}
}

func TestPollCreateRateLimited(t *testing.T) {
	policies := ratelimit.DefaultPolicies()
	policies.CreatePoll = ratelimit.Policy{Max: 1, Window: time.Minute}
	f := newFixture(t, policies)
	owner := uuid.New()

	f.createPoll(t, owner, false, "a", "b")
	_, err := f.pollSvc.Create(context.Background(), owner, pollInput("Again", false, "a", "b"))
	if !errors.Is(err, pollbox_errors.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// another actor has its own budget
	f.createPoll(t, uuid.New(), false, "a", "b")
}

func TestPollCreateCompensatesOnOptionFailure(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	f.options.failCreates = 1

	_, err := f.pollSvc.Create(ctx, uuid.New(), pollInput("Lunch?", false, "a", "b"))
	if !errors.Is(err, pollbox_errors.ErrStoreFailure) || !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want store failure wrapping the injected error", err)
	}
	if _, total, _ := f.polls.List(ctx, 1, 10); total != 0 {
		t.Errorf("poll row survived the failed create: total = %d", total)
	}
}

func TestPollCreateReportsFailedCompensation(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	f.options.failCreates = 1
	f.polls.failDeletes = true

	_, err := f.pollSvc.Create(context.Background(), uuid.New(), pollInput("Lunch?", false, "a", "b"))
	if !errors.Is(err, pollbox_errors.ErrStoreFailure) {
		t.Fatalf("err = %v, want store failure", err)
	}
	if !errors.Is(err, errInjected) || !errors.Is(err, errCompensation) {
		t.Errorf("err = %v, want both the option failure and the compensation failure", err)
	}
}

func TestPollUpdateReplacesOptions(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	owner := uuid.New()
	created := f.createPoll(t, owner, false, "a", "b")

	in := pollInput("Dinner?", true, "x", "y", "z")
	in["description"] = "tonight"
	view, err := f.pollSvc.Update(ctx, owner, created.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.Title != "Dinner?" || !view.AllowMulti || view.Description == nil || len(view.Options) != 3 {
		t.Errorf("view = %+v", view)
	}

	stored, _ := f.options.ListByPoll(ctx, created.ID)
	if len(stored) != 3 || stored[0].Text != "x" {
		t.Errorf("stored options = %+v", stored)
	}
}

func TestPollUpdateOwnership(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), false, "a", "b")

	_, err := f.pollSvc.Update(ctx, uuid.New(), created.ID, pollInput("Mine now", false, "a", "b"))
	if !errors.Is(err, pollbox_errors.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := f.pollSvc.Update(ctx, uuid.New(), 9999, pollInput("x", false, "a", "b")); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("missing poll err = %v, want ErrNotFound", err)
	}
}

func TestPollUpdateRestoresOnFailure(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	owner := uuid.New()
	created := f.createPoll(t, owner, false, "a", "b")

	f.options.failCreates = 1
	_, err := f.pollSvc.Update(ctx, owner, created.ID, pollInput("Changed", true, "x", "y", "z"))
	if !errors.Is(err, errInjected) {
		t.Fatalf("err = %v, want injected failure", err)
	}

	p, err := f.polls.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if p.Title != "Lunch?" || p.AllowMulti {
		t.Errorf("poll fields not restored: %+v", p)
	}
	options, _ := f.options.ListByPoll(ctx, created.ID)
	if len(options) != 2 || options[0].ID != created.Options[0].ID || options[1].Text != "b" {
		t.Errorf("options not restored: %+v", options)
	}
}

func TestPollDelete(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	owner := uuid.New()
	created := f.createPoll(t, owner, false, "a", "b")
	if _, err := f.voteSvc.Submit(ctx, uuid.New(), voteInput(created.ID, created.Options[0].ID)); err != nil {
		t.Fatalf("vote: %v", err)
	}

	if err := f.pollSvc.Delete(ctx, uuid.New(), created.ID); !errors.Is(err, pollbox_errors.ErrUnauthorized) {
		t.Fatalf("delete by stranger err = %v", err)
	}
	if err := f.pollSvc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.querySvc.Get(ctx, created.ID); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if votes, _ := f.votes.ListByPoll(ctx, created.ID); len(votes) != 0 {
		t.Errorf("votes left behind: %d", len(votes))
	}
}

func TestVoteSingleChoice(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), false, "a", "b")
	alice, bob := uuid.New(), uuid.New()

	receipt, err := f.voteSvc.Submit(ctx, alice, voteInput(created.ID, created.Options[0].ID))
	if err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if receipt.VoteID <= 0 || receipt.Results.TotalVotes != 1 {
		t.Errorf("receipt = %+v", receipt)
	}

	_, err = f.voteSvc.Submit(ctx, alice, voteInput(created.ID, created.Options[1].ID))
	if !errors.Is(err, pollbox_errors.ErrAlreadyVoted) {
		t.Fatalf("second vote err = %v, want ErrAlreadyVoted", err)
	}

	if _, err := f.voteSvc.Submit(ctx, bob, voteInput(created.ID, created.Options[1].ID)); err != nil {
		t.Fatalf("vote by another actor: %v", err)
	}

	voted, err := f.voteSvc.HasVoted(ctx, alice, created.ID)
	if err != nil || !voted {
		t.Errorf("HasVoted(alice) = %v, %v", voted, err)
	}
	voted, _ = f.voteSvc.HasVoted(ctx, uuid.New(), created.ID)
	if voted {
		t.Error("HasVoted for a stranger = true")
	}

	if got := len(f.publisher.messages[created.ID]); got != 2 {
		t.Errorf("published %d results, want 2", got)
	}
}

func TestVoteSingleChoiceUniqueIndex(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), false, "a", "b")
	voter := uuid.New()
	f.votes.blind = true

	if _, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, created.Options[0].ID)); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, created.Options[1].ID))
	if !errors.Is(err, pollbox_errors.ErrAlreadyVoted) {
		t.Fatalf("second vote err = %v, want ErrAlreadyVoted", err)
	}
	if votes, _ := f.votes.ListByPoll(ctx, created.ID); len(votes) != 1 {
		t.Errorf("stored votes = %d, want 1", len(votes))
	}
}

func TestVoteMultiChoice(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), true, "a", "b")
	voter := uuid.New()

	for _, o := range created.Options {
		if _, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, o.ID)); err != nil {
			t.Fatalf("vote for %d: %v", o.ID, err)
		}
	}
	receipt, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, created.Options[0].ID))
	if err != nil {
		t.Fatalf("repeat vote: %v", err)
	}
	if receipt.Results.TotalVotes != 3 {
		t.Errorf("total = %d, want 3", receipt.Results.TotalVotes)
	}
}

func TestVoteRejections(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	other := f.createPoll(t, uuid.New(), false, "c", "d")

	closed, err := f.pollSvc.Create(ctx, uuid.New(), validation.Record{
		"title":     "Old news",
		"closes_at": "2020-01-01T00:00:00Z",
		"options":   []any{map[string]any{"text": "a", "position": 0}, map[string]any{"text": "b", "position": 1}},
	})
	if err != nil {
		t.Fatalf("create closed poll: %v", err)
	}

	tests := []struct {
		name  string
		actor uuid.UUID
		raw   any
		want  error
	}{
		{"anonymous", uuid.Nil, voteInput(other.ID, other.Options[0].ID), pollbox_errors.ErrAuthenticationRequired},
		{"closed poll", uuid.New(), voteInput(closed.ID, closed.Options[0].ID), pollbox_errors.ErrPollClosed},
		{"missing poll", uuid.New(), voteInput(9999, 1), pollbox_errors.ErrNotFound},
		{"closed check precedes option check", uuid.New(), voteInput(closed.ID, other.Options[0].ID), pollbox_errors.ErrPollClosed},
		{"foreign option", uuid.New(), voteInput(other.ID, closed.Options[0].ID), pollbox_errors.ErrNotFound},
		{"bad ids", uuid.New(), validation.Record{"poll_id": 0, "option_id": "x"}, pollbox_errors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.voteSvc.Submit(ctx, tt.actor, tt.raw)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVoteRateLimited(t *testing.T) {
	policies := ratelimit.DefaultPolicies()
	policies.Vote = ratelimit.Policy{Max: 2, Window: time.Minute}
	f := newFixture(t, policies)
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), true, "a", "b")
	voter := uuid.New()

	for range 2 {
		if _, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, created.Options[0].ID)); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	if _, err := f.voteSvc.Submit(ctx, voter, voteInput(created.ID, created.Options[0].ID)); !errors.Is(err, pollbox_errors.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestQueryGetIsCachedUntilVote(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), false, "a", "b")

	first, err := f.querySvc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Results.TotalVotes != 0 || first.Results.Status != "active" {
		t.Errorf("results = %+v", first.Results)
	}

	// a write behind the service's back is not visible while the entry lives
	direct := poll.Vote{PollID: created.ID, OptionID: created.Options[0].ID, UserID: uuid.New()}
	if err := f.votes.Create(ctx, &direct); err != nil {
		t.Fatalf("direct vote: %v", err)
	}
	cached, _ := f.querySvc.Get(ctx, created.ID)
	if cached.Results.TotalVotes != 0 {
		t.Errorf("cached total = %d, want 0", cached.Results.TotalVotes)
	}

	if _, err := f.voteSvc.Submit(ctx, uuid.New(), voteInput(created.ID, created.Options[1].ID)); err != nil {
		t.Fatalf("vote: %v", err)
	}
	fresh, _ := f.querySvc.Get(ctx, created.ID)
	if fresh.Results.TotalVotes != 2 {
		t.Errorf("fresh total = %d, want 2", fresh.Results.TotalVotes)
	}
}

func TestQueryList(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	owner := uuid.New()
	for range 3 {
		f.createPoll(t, owner, false, "a", "b", "c")
	}

	page, err := f.querySvc.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 1 || page.Limit != 2 || page.Total != 3 || len(page.Polls) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Polls[0].OptionCount != 3 {
		t.Errorf("option count = %d, want 3", page.Polls[0].OptionCount)
	}

	if _, err := f.querySvc.List(ctx, 1, 1000); err != nil {
		t.Fatalf("List with large limit: %v", err)
	}
	if _, ok, _ := f.cache.Get(ctx, cache.PollsPageKey(1, MaxPageLimit)); !ok {
		t.Error("clamped page not cached under the max limit key")
	}

	f.createPoll(t, owner, false, "a", "b")
	again, _ := f.querySvc.List(ctx, 1, 2)
	if again.Total != 4 {
		t.Errorf("total after create = %d, want 4", again.Total)
	}
}

func TestQueryListRefreshesAfterVote(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	created := f.createPoll(t, uuid.New(), false, "a", "b")

	before, err := f.querySvc.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if before.Polls[0].TotalVotes != 0 {
		t.Fatalf("total votes before = %d", before.Polls[0].TotalVotes)
	}

	if _, err := f.voteSvc.Submit(ctx, uuid.New(), voteInput(created.ID, created.Options[0].ID)); err != nil {
		t.Fatalf("vote: %v", err)
	}

	after, err := f.querySvc.List(ctx, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if after.Polls[0].TotalVotes != 1 {
		t.Errorf("total votes after = %d, want 1", after.Polls[0].TotalVotes)
	}
}

func TestQueryListClampsHugePage(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	f.createPoll(t, uuid.New(), false, "a", "b")

	page, err := f.querySvc.List(ctx, math.MaxInt, MaxPageLimit)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != MaxPage || len(page.Polls) != 0 || page.Total != 1 {
		t.Errorf("page = %+v", page)
	}
}

func TestProfileGetAndUpdate(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	actor := uuid.New()

	if _, err := f.profileSvc.Get(ctx, actor); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Fatalf("Get before update err = %v, want ErrNotFound", err)
	}

	view, err := f.profileSvc.Update(ctx, actor, validation.Record{"name": "Ada"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.Name != "Ada" || !view.EmailNotifications || view.PublicProfile || view.Theme != "system" || view.Language != "en" {
		t.Errorf("defaults = %+v", view)
	}

	if _, err := f.profileSvc.Get(ctx, actor); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := f.profileSvc.Update(ctx, actor, validation.Record{"name": "Ada", "theme": "dark", "email_notifications": false}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	got, _ := f.profileSvc.Get(ctx, actor)
	if got.Theme != "dark" || got.EmailNotifications {
		t.Errorf("Get after update = %+v", got)
	}

	_, err = f.profileSvc.Update(ctx, actor, validation.Record{"name": "Ada", "theme": "neon"})
	if !errors.Is(err, pollbox_errors.ErrValidationFailed) {
		t.Errorf("bad theme err = %v", err)
	}
}

func TestProfileDeleteAccount(t *testing.T) {
	f := newFixture(t, ratelimit.DefaultPolicies())
	ctx := context.Background()
	actor := uuid.New()

	if _, err := f.profileSvc.Update(ctx, actor, validation.Record{"name": "Ada"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	own := f.createPoll(t, actor, false, "a", "b")
	other := f.createPoll(t, uuid.New(), false, "c", "d")
	if _, err := f.voteSvc.Submit(ctx, uuid.New(), voteInput(own.ID, own.Options[0].ID)); err != nil {
		t.Fatalf("vote on own poll: %v", err)
	}
	if _, err := f.voteSvc.Submit(ctx, actor, voteInput(other.ID, other.Options[0].ID)); err != nil {
		t.Fatalf("vote on other poll: %v", err)
	}
	if voted, _ := f.voteSvc.HasVoted(ctx, actor, other.ID); !voted {
		t.Fatal("HasVoted before delete = false")
	}

	if err := f.profileSvc.DeleteAccount(ctx, actor); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if _, err := f.polls.GetByID(ctx, own.ID); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("own poll survived: %v", err)
	}
	if _, err := f.polls.GetByID(ctx, other.ID); err != nil {
		t.Errorf("other poll removed: %v", err)
	}
	if voted, _ := f.voteSvc.HasVoted(ctx, actor, other.ID); voted {
		t.Error("vote marker survived account deletion")
	}
	if _, err := f.profileSvc.Get(ctx, actor); !errors.Is(err, pollbox_errors.ErrNotFound) {
		t.Errorf("profile Get after delete err = %v", err)
	}

	if err := f.profileSvc.DeleteAccount(ctx, actor); !errors.Is(err, pollbox_errors.ErrRateLimited) {
		t.Errorf("second DeleteAccount err = %v, want ErrRateLimited", err)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	svc := NewIdentityService(&config.Config{JWTSecret: "test-secret"})
	actor := uuid.New()

	token, err := svc.IssueAccessToken(actor, time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	got, err := svc.Authenticate(token)
	if err != nil || got != actor {
		t.Fatalf("Authenticate = %s, %v", got, err)
	}

	other := NewIdentityService(&config.Config{JWTSecret: "other-secret"})
	if _, err := other.Authenticate(token); !errors.Is(err, pollbox_errors.ErrAuthenticationRequired) {
		t.Errorf("wrong secret err = %v", err)
	}
	expired, _ := svc.IssueAccessToken(actor, -time.Minute)
	if _, err := svc.Authenticate(expired); !errors.Is(err, pollbox_errors.ErrAuthenticationRequired) {
		t.Errorf("expired token err = %v", err)
	}
	if _, err := svc.Authenticate(""); !errors.Is(err, pollbox_errors.ErrAuthenticationRequired) {
		t.Errorf("empty token err = %v", err)
	}

	ctx := WithActor(context.Background(), actor)
	if got, ok := ActorFromContext(ctx); !ok || got != actor {
		t.Errorf("ActorFromContext = %s, %v", got, ok)
	}
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("ActorFromContext on empty context reported an actor")
	}
}
