package service

import (
	"context"
	"sort"
	"sync"

	"github.com/mohamed-iyed-rhimi-1/questions-generator/internal/domain"
)

// fakeTxRunner hands every transaction the same in-memory repositories.
// Commit/rollback semantics are not simulated; tests that care about
// rollback behavior assert on the error path instead.
type fakeTxRunner struct {
	repos *fakeRepos
}

func newFakeTxRunner() *fakeTxRunner {
	return &fakeTxRunner{repos: newFakeRepos()}
}

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	return fn(r.repos)
}

type fakeRepos struct {
	recordings  *memRecordingRepo
	chunks      *memChunkRepo
	transcripts *memTranscriptRepo
	generations *memGenerationRepo
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{
		recordings:  &memRecordingRepo{byVideoID: map[string]*domain.Recording{}},
		chunks:      &memChunkRepo{},
		transcripts: &memTranscriptRepo{},
		generations: &memGenerationRepo{},
	}
}

func (r *fakeRepos) Recordings() RecordingRepositoryInterface   { return r.recordings }
func (r *fakeRepos) Chunks() ChunkRepositoryInterface           { return r.chunks }
func (r *fakeRepos) Transcripts() TranscriptRepositoryInterface { return r.transcripts }
func (r *fakeRepos) Generations() GenerationRepositoryInterface { return r.generations }

type memRecordingRepo struct {
	mu        sync.Mutex
	byVideoID map[string]*domain.Recording
	nextID    int64
}

func (m *memRecordingRepo) Create(ctx context.Context, rec *domain.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byVideoID[rec.VideoID]; ok {
		return domain.ErrRecordingAlreadyExists
	}
	m.nextID++
	rec.ID = m.nextID
	m.byVideoID[rec.VideoID] = rec
	return nil
}

func (m *memRecordingRepo) Upsert(ctx context.Context, rec *domain.Recording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byVideoID[rec.VideoID]; ok {
		rec.ID = existing.ID
		if rec.FilePath == "" {
			rec.FilePath = existing.FilePath
		}
	} else {
		m.nextID++
		rec.ID = m.nextID
	}
	m.byVideoID[rec.VideoID] = rec
	return nil
}

func (m *memRecordingRepo) GetByVideoID(ctx context.Context, videoID string) (*domain.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byVideoID[videoID]
	if !ok {
		return nil, domain.ErrRecordingNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memRecordingRepo) List(ctx context.Context) ([]*domain.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Recording
	for _, rec := range m.byVideoID {
		copied := *rec
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

func (m *memRecordingRepo) UpdateFilePath(ctx context.Context, videoID, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byVideoID[videoID]
	if !ok {
		return domain.ErrRecordingNotFound
	}
	rec.FilePath = filePath
	return nil
}

func (m *memRecordingRepo) Delete(ctx context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byVideoID[videoID]; !ok {
		return domain.ErrRecordingNotFound
	}
	delete(m.byVideoID, videoID)
	return nil
}

type memChunkRepo struct {
	mu     sync.Mutex
	chunks []*domain.Chunk
	nextID int64

	createErr error
}

func (m *memChunkRepo) CreateBatch(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, c := range chunks {
		m.nextID++
		c.ID = m.nextID
		m.chunks = append(m.chunks, c)
	}
	return nil
}

func (m *memChunkRepo) ListByVideoID(ctx context.Context, videoID string) ([]*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Chunk
	for _, c := range m.chunks {
		if c.VideoID == videoID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (m *memChunkRepo) DeleteByVideoID(ctx context.Context, videoID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.Chunk
	deleted := 0
	for _, c := range m.chunks {
		if c.VideoID == videoID {
			deleted++
		} else {
			kept = append(kept, c)
		}
	}
	m.chunks = kept
	return deleted, nil
}

type memTranscriptRepo struct {
	mu               sync.Mutex
	transcripts      []*domain.Transcript
	chunkTranscripts []*domain.ChunkTranscript
	nextID           int64

	createChunkErr error
}

func (m *memTranscriptRepo) CreatePlaceholder(ctx context.Context, t *domain.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	m.transcripts = append(m.transcripts, t)
	return nil
}

func (m *memTranscriptRepo) UpdateContent(ctx context.Context, id int64, text string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transcripts {
		if t.ID == id {
			t.Text = text
			t.Embedding = embedding
			return nil
		}
	}
	return domain.ErrTranscriptNotFound
}

func (m *memTranscriptRepo) GetByVideoID(ctx context.Context, videoID string) (*domain.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.transcripts) - 1; i >= 0; i-- {
		if m.transcripts[i].VideoID == videoID {
			copied := *m.transcripts[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrTranscriptNotFound
}

func (m *memTranscriptRepo) DeleteByVideoID(ctx context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.Transcript
	for _, t := range m.transcripts {
		if t.VideoID != videoID {
			kept = append(kept, t)
		}
	}
	m.transcripts = kept
	return nil
}

func (m *memTranscriptRepo) CreateChunkTranscript(ctx context.Context, ct *domain.ChunkTranscript) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createChunkErr != nil {
		return m.createChunkErr
	}
	for _, existing := range m.chunkTranscripts {
		if existing.TranscriptID == ct.TranscriptID && existing.ChunkID == ct.ChunkID {
			return domain.ErrChunkTranscriptAlreadyExists
		}
	}
	m.nextID++
	ct.ID = m.nextID
	m.chunkTranscripts = append(m.chunkTranscripts, ct)
	return nil
}

func (m *memTranscriptRepo) ListChunkTranscripts(ctx context.Context, transcriptID int64) ([]*domain.ChunkTranscript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ChunkTranscript
	for _, ct := range m.chunkTranscripts {
		if ct.TranscriptID == transcriptID {
			out = append(out, ct)
		}
	}
	return out, nil
}

type memGenerationRepo struct {
	mu          sync.Mutex
	generations []*domain.Generation
	questions   []*domain.Question
	nextID      int64
}

func (m *memGenerationRepo) Create(ctx context.Context, g *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	g.ID = m.nextID
	m.generations = append(m.generations, g)
	return nil
}

func (m *memGenerationRepo) GetByID(ctx context.Context, id int64) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.generations {
		if g.ID == id {
			copied := *g
			return &copied, nil
		}
	}
	return nil, domain.ErrGenerationNotFound
}

func (m *memGenerationRepo) ListByVideoID(ctx context.Context, videoID string) ([]*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Generation
	for _, g := range m.generations {
		if g.VideoID == videoID {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memGenerationRepo) UpdateStatus(ctx context.Context, id int64, status domain.GenerationStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.generations {
		if g.ID == id {
			g.Status = status
			g.Error = errMsg
			return nil
		}
	}
	return domain.ErrGenerationNotFound
}

func (m *memGenerationRepo) CreateQuestions(ctx context.Context, questions []*domain.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range questions {
		m.nextID++
		q.ID = m.nextID
		m.questions = append(m.questions, q)
	}
	return nil
}

func (m *memGenerationRepo) ListQuestions(ctx context.Context, generationID int64) ([]*domain.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Question
	for _, q := range m.questions {
		if q.GenerationID == generationID {
			copied := *q
			out = append(out, &copied)
		}
	}
	return out, nil
}
