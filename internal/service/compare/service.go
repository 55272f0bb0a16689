package compare

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"curtainbe/internal/domain"
	"curtainbe/internal/service/session"
	"curtainbe/internal/uniprot"
)

// ContentFetcher retrieves a session's stored payload.
type ContentFetcher interface {
	FetchContent(ctx context.Context, s *domain.Session) (*session.Content, error)
}

// Annotator resolves accessions to gene-name annotations in batches. onBatch
// is invoked with the 1-based batch number after each batch downloads.
type Annotator interface {
	MapAccessions(ctx context.Context, accessions []string, onBatch func(n int)) ([]uniprot.Annotation, error)
}

// Service runs cross-session comparisons. Submission filters the requested
// sessions down to those the caller may see, persists a job record, and hands
// the work to a background goroutine; callers follow along on the progress
// channel or by polling the job.
type Service struct {
	sessions  domain.SessionRepository
	jobs      domain.CompareJobRepository
	fetcher   ContentFetcher
	annotator Annotator
	publisher domain.Publisher
	logger    *slog.Logger
}

// NewService creates a comparison service.
func NewService(
	sessions domain.SessionRepository,
	jobs domain.CompareJobRepository,
	fetcher ContentFetcher,
	annotator Annotator,
	publisher domain.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions:  sessions,
		jobs:      jobs,
		fetcher:   fetcher,
		annotator: annotator,
		publisher: publisher,
		logger:    logger.With("component", "compare_service"),
	}
}

// Submit validates and enqueues a comparison. Requested sessions the caller
// cannot see are silently dropped; the job covers only the accessible ones.
// The returned job is in the queued state and runs asynchronously.
func (s *Service) Submit(ctx context.Context, req domain.CompareRequest, userID string) (*domain.CompareJob, error) {
	if len(req.SessionIDs) == 0 {
		return nil, domain.ErrValidation("at least one session id is required")
	}
	if len(req.QueryTerms) == 0 {
		return nil, domain.ErrValidation("at least one query identifier is required")
	}
	if req.ChannelName == "" {
		return nil, domain.ErrValidation("a channel name is required")
	}
	if _, err := domain.ParseMatchType(string(req.MatchType)); err != nil {
		return nil, err
	}

	s.publisher.Publish(req.ChannelName, domain.JobMessage{
		Message:     "Started operation",
		Data:        "",
		SenderName:  domain.SenderNameServer,
		RequestType: domain.RequestTypeCompare,
		Time:        time.Now().Format(time.RFC3339),
	})

	sessions, err := s.sessions.ListByLinkIDs(ctx, req.SessionIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve sessions: %w", err)
	}
	accessible := make([]string, 0, len(sessions))
	for i := range sessions {
		if sessions[i].AccessibleBy(userID) {
			accessible = append(accessible, sessions[i].LinkID)
		}
	}

	job, err := s.jobs.Create(ctx, &domain.CompareJob{
		SessionIDs:  accessible,
		QueryTerms:  req.QueryTerms,
		MatchType:   req.MatchType,
		ChannelName: req.ChannelName,
	})
	if err != nil {
		return nil, fmt.Errorf("create compare job: %w", err)
	}

	go s.run(job)

	s.logger.Info("comparison submitted", "job_id", job.ID,
		"sessions", len(accessible), "match_type", job.MatchType)
	return job, nil
}

// GetJob returns a job's current state and result.
func (s *Service) GetJob(ctx context.Context, id string) (*domain.CompareJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// run executes one comparison job to completion. It deliberately uses a
// fresh context: the job outlives the submitting request.
func (s *Service) run(job *domain.CompareJob) {
	ctx := context.Background()

	if err := s.jobs.MarkStarted(ctx, job.ID); err != nil {
		s.logger.Error("failed to mark job started", "job_id", job.ID, "error", err)
	}

	query := newQueryIndex(job.QueryTerms)
	m := matcherFor(job.MatchType)
	result := domain.CompareResult{}

	// Sessions are processed sequentially in request order so each session's
	// progress messages stay ordered on the channel.
	var pending []*workTable
	for _, linkID := range job.SessionIDs {
		s.publish(job, "Processing "+linkID)

		wt, err := s.loadSession(ctx, linkID)
		if err != nil {
			// A bad session does not abort the comparison for the others.
			s.logger.Warn("skipping session", "job_id", job.ID, "link_id", linkID, "error", err)
			s.publish(job, "Failed to process "+linkID)
			continue
		}

		switch job.MatchType {
		case domain.MatchPrimaryID:
			s.publish(job, "Matching Primary ID for "+linkID)
			result[linkID] = assemble(wt, m.Match(wt, query))
		case domain.MatchPrimaryIDUniProt:
			s.publish(job, "Matching UniProt Primary ID for "+linkID)
			result[linkID] = assemble(wt, m.Match(wt, query))
		case domain.MatchGeneNames:
			// Matching waits until the shared annotation lookup completes.
			pending = append(pending, wt)
		}
	}

	if job.MatchType == domain.MatchGeneNames {
		if err := s.matchGeneNames(ctx, job, query, m, pending, result); err != nil {
			s.fail(ctx, job, err)
			return
		}
	}

	if err := s.jobs.MarkFinished(ctx, job.ID, result); err != nil {
		s.logger.Error("failed to store job result", "job_id", job.ID, "error", err)
	}

	s.publisher.Publish(job.ChannelName, domain.JobMessage{
		Message:     "Operation Completed",
		Data:        result,
		SenderName:  domain.SenderNameServer,
		RequestType: domain.RequestTypeCompare,
		Time:        time.Now().Format(time.RFC3339),
		OperationID: job.ID,
	})
	s.logger.Info("comparison finished", "job_id", job.ID, "sessions", len(result))
}

// loadSession fetches and transforms one session's datasets.
func (s *Service) loadSession(ctx context.Context, linkID string) (*workTable, error) {
	sess, err := s.sessions.GetByLinkID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	content, err := s.fetcher.FetchContent(ctx, sess)
	if err != nil {
		return nil, err
	}
	processed, err := ParseTSV(content.Processed)
	if err != nil {
		return nil, fmt.Errorf("parse processed table: %w", err)
	}
	raw, err := ParseTSV(content.Raw)
	if err != nil {
		return nil, fmt.Errorf("parse raw table: %w", err)
	}
	return buildWorkTable(linkID, content, processed, raw), nil
}

// matchGeneNames performs the single shared annotation lookup across all
// sessions, merges gene names into each work table, and matches. An
// annotation failure is fatal to the whole job: gene-name matching is
// meaningless without complete coverage.
func (s *Service) matchGeneNames(
	ctx context.Context,
	job *domain.CompareJob,
	query *queryIndex,
	m matcher,
	pending []*workTable,
	result domain.CompareResult,
) error {
	accessions := query.queryAccessions()
	seen := make(map[string]struct{}, len(accessions))
	for _, acc := range accessions {
		seen[acc] = struct{}{}
	}
	for _, wt := range pending {
		for _, row := range wt.rows {
			if _, dup := seen[row.uniprot]; dup {
				continue
			}
			seen[row.uniprot] = struct{}{}
			accessions = append(accessions, row.uniprot)
		}
	}

	s.publish(job, "Retrieving UniProt data")
	annotations, err := s.annotator.MapAccessions(ctx, accessions, func(n int) {
		s.publish(job, fmt.Sprintf("Downloaded UniProt Job %d", n))
	})
	if err != nil {
		return fmt.Errorf("annotation lookup: %w", err)
	}

	byAcc := make(map[string]string, len(annotations))
	for _, ann := range annotations {
		if _, dup := byAcc[ann.From]; !dup {
			byAcc[ann.From] = ann.GeneNames
		}
		if _, isQuery := query.accToTerm[ann.From]; isQuery {
			query.queryAnnotations = append(query.queryAnnotations, ann)
		}
	}

	for _, wt := range pending {
		s.publish(job, "Matching Gene Names for "+wt.linkID)
		for i := range wt.rows {
			wt.rows[i].geneNames = splitJoinUpper(byAcc[wt.rows[i].uniprot])
		}
		result[wt.linkID] = assemble(wt, m.Match(wt, query))
	}
	return nil
}

func (s *Service) fail(ctx context.Context, job *domain.CompareJob, err error) {
	s.logger.Error("comparison failed", "job_id", job.ID, "error", err)
	if markErr := s.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
		s.logger.Error("failed to mark job failed", "job_id", job.ID, "error", markErr)
	}
}

func (s *Service) publish(job *domain.CompareJob, text string) {
	s.publisher.Publish(job.ChannelName, domain.JobMessage{
		Message:     text,
		Data:        "",
		SenderName:  domain.SenderNameServer,
		RequestType: domain.RequestTypeCompare,
		Time:        time.Now().Format(time.RFC3339),
		OperationID: job.ID,
	})
}

// assemble builds a session's slice of the final result: the matched
// differential rows plus the raw rows for the matched identifiers, restricted
// to the sample columns and the identifier.
func assemble(wt *workTable, rows []domain.DifferentialRow) *domain.SessionComparison {
	if rows == nil {
		rows = []domain.DifferentialRow{}
	}
	matched := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		matched[r.PrimaryID] = struct{}{}
	}

	raw := []domain.RawRow{}
	for _, row := range wt.rawTable.Rows {
		pid := wt.rawTable.Cell(row, wt.rawPIDCol)
		if _, ok := matched[pid]; !ok {
			continue
		}
		record := domain.RawRow{"primaryID": pid}
		for sample := range wt.sampleMap {
			record[sample] = wt.rawTable.Cell(row, sample)
		}
		raw = append(raw, record)
	}

	return &domain.SessionComparison{
		Differential: rows,
		Raw:          raw,
		SampleMap:    wt.sampleMap,
	}
}

// splitJoinUpper uppercases a gene-name string while normalizing its
// whitespace to single spaces.
func splitJoinUpper(s string) string {
	fields := splitGeneSymbols(s)
	if len(fields) == 0 {
		return ""
	}
	out := fields[0]
	for _, f := range fields[1:] {
		out += " " + f
	}
	return out
}
