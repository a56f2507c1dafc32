package stage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/domain/entity"
	"bookforge-api/internal/domain/repository"
	"bookforge-api/internal/infrastructure/llm"
	apperrors "bookforge-api/pkg/errors"
)

// ---- 内存仓储 ----

type memProjectRepo struct {
	projects map[string]*entity.Project
}

func (m *memProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	return m.projects[id], nil
}

func (m *memProjectRepo) GetByIDAndUser(ctx context.Context, id, userID string) (*entity.Project, error) {
	p := m.projects[id]
	if p == nil || p.UserID != userID {
		return nil, nil
	}
	return p, nil
}

func (m *memProjectRepo) Update(ctx context.Context, p *entity.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *memProjectRepo) Delete(ctx context.Context, id string) error {
	delete(m.projects, id)
	return nil
}

func (m *memProjectRepo) ListByUser(ctx context.Context, userID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	var items []*entity.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			items = append(items, p)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), pagination), nil
}

type memConceptRepo struct {
	sets map[string]*entity.ConceptSet // projectID -> set
}

func (m *memConceptRepo) Upsert(ctx context.Context, set *entity.ConceptSet) error {
	if existing, ok := m.sets[set.ProjectID]; ok {
		set.ID = existing.ID
	}
	m.sets[set.ProjectID] = set
	return nil
}

func (m *memConceptRepo) GetByProject(ctx context.Context, projectID string) (*entity.ConceptSet, error) {
	return m.sets[projectID], nil
}

type memChapterRepo struct {
	chapters map[string]*entity.Chapter
}

func (m *memChapterRepo) GetByID(ctx context.Context, id string) (*entity.Chapter, error) {
	return m.chapters[id], nil
}

func (m *memChapterRepo) Update(ctx context.Context, ch *entity.Chapter) error {
	m.chapters[ch.ID] = ch
	return nil
}

func (m *memChapterRepo) ListByProject(ctx context.Context, projectID string) ([]*entity.Chapter, error) {
	var out []*entity.Chapter
	for _, ch := range m.chapters {
		if ch.ProjectID == projectID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *memChapterRepo) GetByProjectAndOrder(ctx context.Context, projectID string, orderIndex int) (*entity.Chapter, error) {
	for _, ch := range m.chapters {
		if ch.ProjectID == projectID && ch.OrderIndex == orderIndex {
			return ch, nil
		}
	}
	return nil, nil
}

func (m *memChapterRepo) ReplaceAll(ctx context.Context, projectID string, chapters []*entity.Chapter) error {
	for id, ch := range m.chapters {
		if ch.ProjectID == projectID {
			delete(m.chapters, id)
		}
	}
	for _, ch := range chapters {
		m.chapters[ch.ID] = ch
	}
	return nil
}

func (m *memChapterRepo) UpdateStatus(ctx context.Context, id string, status entity.ChapterStatus) error {
	if ch, ok := m.chapters[id]; ok {
		ch.Status = status
	}
	return nil
}

type memCoverRepo struct {
	designs []*entity.CoverDesign
}

func (m *memCoverRepo) Create(ctx context.Context, d *entity.CoverDesign) error {
	m.designs = append(m.designs, d)
	return nil
}

func (m *memCoverRepo) ListByProject(ctx context.Context, projectID string) ([]*entity.CoverDesign, error) {
	var out []*entity.CoverDesign
	for i := len(m.designs) - 1; i >= 0; i-- {
		if m.designs[i].ProjectID == projectID {
			out = append(out, m.designs[i])
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[string]*entity.User
}

func (m *memUserRepo) Create(ctx context.Context, u *entity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.users[id], nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Update(ctx context.Context, u *entity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	return nil
}

func (m *memUserRepo) IncrementTokenUsage(ctx context.Context, id string, tokens int64) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.TokensUsed += tokens
	u.TokensThisMonth += tokens
	return nil
}

func (m *memUserRepo) IncrementProjectCount(ctx context.Context, id string, delta int) error {
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ---- 生成端 fake ----

type fakeTextGen struct {
	responses  []string
	err        error
	calls      int
	lastOpts   llm.GenerateOptions
	lastSystem string
	lastUser   string
}

func (f *fakeTextGen) GenerateText(ctx context.Context, systemPrompt, userPrompt string, opts llm.GenerateOptions) (*llm.GenerateResult, error) {
	f.calls++
	f.lastOpts = opts
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &llm.GenerateResult{Content: resp, Provider: "fake", Model: "fake-model"}, nil
}

type fakeImageGen struct {
	bytes []byte
	err   error
	calls int
}

func (f *fakeImageGen) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bytes, nil
}

type fakeUploader struct {
	keys []string
	err  error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

// ---- 测试脚手架 ----

type testEnv struct {
	svc      *Service
	projects *memProjectRepo
	concepts *memConceptRepo
	chapters *memChapterRepo
	covers   *memCoverRepo
	users    *memUserRepo
	text     *fakeTextGen
	image    *fakeImageGen
	uploader *fakeUploader
	user     *entity.User
	project  *entity.Project
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	user := entity.NewUser("author@example.com", "Author")
	user.TokenLimit = 1_000_000

	project := entity.NewProject(user.ID, "quantum literacy")
	project.Description = "A book about quantum thinking for everyone"
	project.Genre = "Popular Science"
	project.TargetAudience = "Curious professionals"
	project.WritingStyle = "Conversational"

	env := &testEnv{
		projects: &memProjectRepo{projects: map[string]*entity.Project{project.ID: project}},
		concepts: &memConceptRepo{sets: map[string]*entity.ConceptSet{}},
		chapters: &memChapterRepo{chapters: map[string]*entity.Chapter{}},
		covers:   &memCoverRepo{},
		users:    &memUserRepo{users: map[string]*entity.User{user.ID: user}},
		text:     &fakeTextGen{responses: []string{"{}"}},
		image:    &fakeImageGen{bytes: []byte("png-bytes")},
		uploader: &fakeUploader{},
		user:     user,
		project:  project,
	}
	guard := budget.NewGuard(env.users, nil)
	env.svc = NewService(env.projects, env.concepts, env.chapters, env.covers, guard, passthroughTx{}, env.text, env.image, env.uploader)
	return env
}

const brainstormJSON = `{"thesis":"Quantum literacy is a civic skill","topics":["education","physics"],"researchQuestions":["q1","q2","q3","q4","q5"]}`

func TestExpandTopicSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.text.responses = []string{brainstormJSON}

	result, err := env.svc.ExpandTopic(context.Background(), env.user.ID, env.project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Thesis == "" || len(result.Topics) == 0 || len(result.ResearchQuestions) == 0 {
		t.Errorf("incomplete brainstorm: %+v", result)
	}
	if env.project.CurrentStep != entity.StepBrainstorm || env.project.Status != entity.ProjectStatusBrainstorm {
		t.Errorf("expected step 1/brainstorm, got %d/%s", env.project.CurrentStep, env.project.Status)
	}
	set := env.concepts.sets[env.project.ID]
	if set == nil || set.ThesisStatement != result.Thesis {
		t.Errorf("concept set not persisted: %+v", set)
	}
	if env.user.TokensThisMonth != 5000 {
		t.Errorf("expected 5000 tokens committed, got %d", env.user.TokensThisMonth)
	}
}

func TestExpandTopicUpsertIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.text.responses = []string{brainstormJSON, brainstormJSON}

	for i := 0; i < 2; i++ {
		if _, err := env.svc.ExpandTopic(context.Background(), env.user.ID, env.project.ID); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}
	if len(env.concepts.sets) != 1 {
		t.Errorf("expected exactly one concept set row, got %d", len(env.concepts.sets))
	}
}

func TestExpandTopicProjectNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ExpandTopic(context.Background(), env.user.ID, "missing")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeProjectNotFound {
		t.Errorf("expected project not found, got %v", err)
	}
	if env.text.calls != 0 {
		t.Errorf("provider must not be called, got %d calls", env.text.calls)
	}
}

func TestBudgetRejectionSkipsProviderAndMutation(t *testing.T) {
	env := newTestEnv(t)
	env.user.TokensThisMonth = 48000
	env.user.TokenLimit = 50000

	chapter := entity.NewChapter(env.project.ID, "Ch 1", 0)
	env.chapters.chapters[chapter.ID] = chapter

	// 章节估算 45000 超出剩余 2000
	_, err := env.svc.GenerateChapter(context.Background(), env.user.ID, chapter.ID)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeTokenLimitExceeded {
		t.Fatalf("expected token limit rejection, got %v", err)
	}
	if env.text.calls != 0 {
		t.Errorf("provider must not be called on rejection, got %d calls", env.text.calls)
	}
	if chapter.Status != entity.ChapterStatusDraft {
		t.Errorf("chapter must stay draft on rejection, got %s", chapter.Status)
	}
	if env.user.TokensThisMonth != 48000 {
		t.Errorf("counters must be unchanged, got %d", env.user.TokensThisMonth)
	}
}

func TestGenerateConceptsNormalizesBareObject(t *testing.T) {
	env := newTestEnv(t)
	env.text.responses = []string{`{"title":"Solo Concept","tagline":"t","description":"d","targetMarket":"m"}`}

	concepts, err := env.svc.GenerateConcepts(context.Background(), env.user.ID, env.project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(concepts) != 1 || concepts[0].Title != "Solo Concept" {
		t.Errorf("expected normalized single-element array, got %+v", concepts)
	}
	set := env.concepts.sets[env.project.ID]
	if set == nil || len(set.Concepts) != 1 {
		t.Errorf("concepts not persisted: %+v", set)
	}
	if env.project.CurrentStep != entity.StepConcept {
		t.Errorf("expected step 2, got %d", env.project.CurrentStep)
	}
}

const outlineJSON = `[
  {"id":"ch1","title":"Foundations","summary":"s1","sections":["a","b","c"]},
  {"id":"ch2","title":"Complexity","summary":"s2","sections":["d","e"]}
]`

func seedConcepts(env *testEnv, titles ...string) {
	set := entity.NewConceptSet(env.project.ID)
	for _, title := range titles {
		set.Concepts = append(set.Concepts, entity.BookConcept{Title: title, Tagline: "t", Description: "d", TargetMarket: "m"})
	}
	env.concepts.sets[env.project.ID] = set
}

func TestGenerateOutlineReplacesChapters(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "First", "Second", "Third")
	env.text.responses = []string{outlineJSON}

	// 预置旧章节，大纲重跑必须整体替换
	for i := 0; i < 3; i++ {
		old := entity.NewChapter(env.project.ID, "Old", i)
		env.chapters.chapters[old.ID] = old
	}

	chapters, err := env.svc.GenerateOutline(context.Background(), env.user.ID, env.project.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(chapters))
	}

	stored, _ := env.chapters.ListByProject(context.Background(), env.project.ID)
	if len(stored) != 2 {
		t.Fatalf("expected exactly 2 stored chapters, got %d", len(stored))
	}
	for i, ch := range stored {
		if ch.OrderIndex != i {
			t.Errorf("expected contiguous order index %d, got %d", i, ch.OrderIndex)
		}
		if ch.Status != entity.ChapterStatusDraft || ch.TargetWordCount != entity.DefaultTargetWordCount {
			t.Errorf("chapter defaults wrong: %+v", ch)
		}
	}

	if env.project.Title != "Second" {
		t.Errorf("expected project title from selected concept, got %q", env.project.Title)
	}
	set := env.concepts.sets[env.project.ID]
	if set.SelectedTitle != "Second" {
		t.Errorf("expected selected concept persisted, got %q", set.SelectedTitle)
	}
	if env.project.CurrentStep != entity.StepOutline {
		t.Errorf("expected step 3, got %d", env.project.CurrentStep)
	}
}

func TestGenerateOutlineClampsConceptIndex(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "First", "Second", "Third")
	env.text.responses = []string{outlineJSON}

	if _, err := env.svc.GenerateOutline(context.Background(), env.user.ID, env.project.ID, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.project.Title != "First" {
		t.Errorf("out-of-range index must fall back to concept 0, got %q", env.project.Title)
	}
}

func TestGenerateOutlineKeepsStoredConceptsUnshifted(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "", "B", "C")
	env.text.responses = []string{outlineJSON}

	// 下标 1 作用于过滤后的候选 [B C]，选中 C
	if _, err := env.svc.GenerateOutline(context.Background(), env.user.ID, env.project.ID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.project.Title != "C" {
		t.Errorf("expected selection from filtered candidates, got %q", env.project.Title)
	}

	// 过滤只影响候选，持久化的概念数组不能被左移改写
	set := env.concepts.sets[env.project.ID]
	want := []string{"", "B", "C"}
	if len(set.Concepts) != len(want) {
		t.Fatalf("stored concepts resized: %+v", set.Concepts)
	}
	for i, title := range want {
		if set.Concepts[i].Title != title {
			t.Errorf("stored concept %d = %q, want %q", i, set.Concepts[i].Title, title)
		}
	}
}

func TestGenerateOutlineWithoutConcepts(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GenerateOutline(context.Background(), env.user.ID, env.project.ID, 0)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConceptNotFound {
		t.Errorf("expected concept not found, got %v", err)
	}
}

func TestGenerateChapterSuccess(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "The Book")
	env.concepts.sets[env.project.ID].SelectedTitle = "The Book"

	prev := entity.NewChapter(env.project.ID, "Ch 0", 0)
	prev.SummaryContext = "" // 无摘要也要能继续生成
	chapter := entity.NewChapter(env.project.ID, "Ch 1", 1)
	env.chapters.chapters[prev.ID] = prev
	env.chapters.chapters[chapter.ID] = chapter

	env.text.responses = []string{"## Opening\n\nword one two three four five"}

	result, err := env.svc.GenerateChapter(context.Background(), env.user.ID, chapter.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != entity.ChapterStatusGenerated {
		t.Errorf("expected status generated, got %s", result.Status)
	}
	if result.WordCount != 7 {
		t.Errorf("expected whitespace word count 7, got %d", result.WordCount)
	}
	if env.project.CurrentStep != entity.StepWriting {
		t.Errorf("expected step 4, got %d", env.project.CurrentStep)
	}
	if env.user.TokensThisMonth != 45000 {
		t.Errorf("expected 45000 committed, got %d", env.user.TokensThisMonth)
	}
}

func TestGenerateChapterClampsTargetWordCount(t *testing.T) {
	env := newTestEnv(t)
	chapter := entity.NewChapter(env.project.ID, "Ch 1", 0)
	chapter.TargetWordCount = 9000
	env.chapters.chapters[chapter.ID] = chapter
	env.text.responses = []string{"content"}

	if _, err := env.svc.GenerateChapter(context.Background(), env.user.ID, chapter.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(env.text.lastSystem, "approximately 3000 words") {
		t.Errorf("target word count must be clamped to 3000, system prompt: %q", env.text.lastSystem)
	}
	if !strings.Contains(env.text.lastUser, "Target Word Count: 3000 words") {
		t.Errorf("user prompt must carry clamped target, got: %q", env.text.lastUser)
	}
}

func TestGenerateChapterFailureLeavesGenerating(t *testing.T) {
	env := newTestEnv(t)
	chapter := entity.NewChapter(env.project.ID, "Ch 1", 0)
	env.chapters.chapters[chapter.ID] = chapter
	env.text.err = errors.New("provider down")

	_, err := env.svc.GenerateChapter(context.Background(), env.user.ID, chapter.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	// 失败时状态停留在 generating，由用户手动重试
	if chapter.Status != entity.ChapterStatusGenerating {
		t.Errorf("expected status generating after failure, got %s", chapter.Status)
	}
	if env.user.TokensThisMonth != 0 {
		t.Errorf("failed generation must not commit tokens, got %d", env.user.TokensThisMonth)
	}
}

func TestGenerateCoverSuccess(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "The Book")
	env.concepts.sets[env.project.ID].SelectedTitle = "The Book"
	env.text.responses = []string{"A minimalist geometric abstraction"}

	result, err := env.svc.GenerateCover(context.Background(), env.user.ID, env.project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ImageURL == "" || result.Prompt == "" {
		t.Errorf("incomplete cover result: %+v", result)
	}
	if len(env.uploader.keys) != 1 {
		t.Fatalf("expected one upload, got %d", len(env.uploader.keys))
	}
	wantPrefix := env.user.ID + "/" + env.project.ID + "/cover_"
	if !strings.HasPrefix(env.uploader.keys[0], wantPrefix) {
		t.Errorf("expected storage key prefix %q, got %q", wantPrefix, env.uploader.keys[0])
	}
	if len(env.covers.designs) != 1 {
		t.Fatalf("expected one cover row, got %d", len(env.covers.designs))
	}
	if env.covers.designs[0].StyleVariant != env.project.CoverStyle {
		t.Errorf("expected style variant %q, got %q", env.project.CoverStyle, env.covers.designs[0].StyleVariant)
	}
	if env.project.CurrentStep != entity.StepDesign {
		t.Errorf("expected step 5, got %d", env.project.CurrentStep)
	}
	if env.user.TokensThisMonth != 7000 {
		t.Errorf("expected 7000 committed, got %d", env.user.TokensThisMonth)
	}
}

func TestGenerateCoverAppendsHistory(t *testing.T) {
	env := newTestEnv(t)
	seedConcepts(env, "The Book")
	env.text.responses = []string{"prompt one", "prompt two"}

	for i := 0; i < 2; i++ {
		if _, err := env.svc.GenerateCover(context.Background(), env.user.ID, env.project.ID); err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
	}
	if len(env.covers.designs) != 2 {
		t.Errorf("cover rows must append, expected 2 got %d", len(env.covers.designs))
	}
}

func TestStepIndexIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	env.project.AdvanceTo(entity.StepOutline)
	env.text.responses = []string{brainstormJSON}

	// 重跑早期阶段覆盖产物，但步骤指针不回退
	if _, err := env.svc.ExpandTopic(context.Background(), env.user.ID, env.project.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.project.CurrentStep != entity.StepOutline {
		t.Errorf("step must not move backward, got %d", env.project.CurrentStep)
	}
}
