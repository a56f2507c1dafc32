package budget

import (
	"context"
	"errors"
	"testing"

	"bookforge-api/internal/domain/entity"
	apperrors "bookforge-api/pkg/errors"
)

type fakeUserRepo struct {
	users       map[string]*entity.User
	incremented map[string]int64
	getErr      error
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	m := make(map[string]*entity.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m, incremented: make(map[string]int64)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) IncrementTokenUsage(ctx context.Context, id string, tokens int64) error {
	u, ok := f.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.TokensUsed += tokens
	u.TokensThisMonth += tokens
	f.incremented[id] += tokens
	return nil
}

func (f *fakeUserRepo) IncrementProjectCount(ctx context.Context, id string, delta int) error {
	return nil
}

type fakeUsageCache struct {
	invalidated []string
}

func (f *fakeUsageCache) InvalidateUsage(ctx context.Context, userID string) error {
	f.invalidated = append(f.invalidated, userID)
	return nil
}

func newTestUser(usedThisMonth, limit int64) *entity.User {
	u := entity.NewUser("test@example.com", "tester")
	u.TokensThisMonth = usedThisMonth
	u.TokenLimit = limit
	return u
}

func TestGuardCheckAllowsWithinBudget(t *testing.T) {
	user := newTestUser(0, 100000)
	guard := NewGuard(newFakeUserRepo(user), nil)

	got, err := guard.Check(context.Background(), user.ID, StageExpandTopic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestGuardCheckRejectsOverBudget(t *testing.T) {
	// 剩余 4999，expand_topic 估算 5000，应拒绝
	user := newTestUser(95001, 100000)
	guard := NewGuard(newFakeUserRepo(user), nil)

	_, err := guard.Check(context.Background(), user.ID, StageExpandTopic)
	if err == nil {
		t.Fatal("expected rejection, got nil error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeTokenLimitExceeded {
		t.Errorf("expected code %s, got %s", apperrors.CodeTokenLimitExceeded, appErr.Code)
	}
}

func TestGuardCheckAllowsExactBoundary(t *testing.T) {
	// 剩余正好等于估算时允许（used+estimate == limit）
	user := newTestUser(95000, 100000)
	guard := NewGuard(newFakeUserRepo(user), nil)

	if _, err := guard.Check(context.Background(), user.ID, StageExpandTopic); err != nil {
		t.Fatalf("expected boundary request to pass, got: %v", err)
	}
}

func TestGuardCheckUnknownUser(t *testing.T) {
	guard := NewGuard(newFakeUserRepo(), nil)

	_, err := guard.Check(context.Background(), "missing", StageChapter)
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUserNotFound {
		t.Errorf("expected code %s, got %s", apperrors.CodeUserNotFound, appErr.Code)
	}
}

func TestGuardCommitIncrementsEstimate(t *testing.T) {
	user := newTestUser(0, 1000000)
	repo := newFakeUserRepo(user)
	cache := &fakeUsageCache{}
	guard := NewGuard(repo, cache)

	if err := guard.Commit(context.Background(), user.ID, StageChapter); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if repo.incremented[user.ID] != 45000 {
		t.Errorf("expected 45000 tokens committed, got %d", repo.incremented[user.ID])
	}
	if user.TokensUsed != 45000 || user.TokensThisMonth != 45000 {
		t.Errorf("expected both counters at 45000, got used=%d month=%d", user.TokensUsed, user.TokensThisMonth)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != user.ID {
		t.Errorf("expected usage cache invalidated for %s, got %v", user.ID, cache.invalidated)
	}
}

func TestEstimateForStages(t *testing.T) {
	cases := map[Stage]int64{
		StageExpandTopic: 5000,
		StageConcepts:    10000,
		StageOutline:     11000,
		StageChapter:     45000,
		StageCover:       7000,
	}
	for stage, want := range cases {
		if got := EstimateFor(stage); got != want {
			t.Errorf("EstimateFor(%s) = %d, want %d", stage, got, want)
		}
	}
	if got := EstimateFor(Stage("nope")); got != 0 {
		t.Errorf("unknown stage estimate = %d, want 0", got)
	}
}
