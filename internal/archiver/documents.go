package archiver

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hochfrequenz/case-archiver/internal/archive"
	"github.com/hochfrequenz/case-archiver/internal/category"
	"github.com/hochfrequenz/case-archiver/internal/domain"
	"github.com/hochfrequenz/case-archiver/internal/notify"
)

// processPage archives the documents of every closed case on the page.
// Failures are isolated per case and per document; the page is always
// processed to the end.
func (s *Service) processPage(ctx context.Context, run *domain.BatchRun, cases []domain.Case) {
	for i := range cases {
		c := &cases[i]
		if !c.Closed() {
			continue
		}

		// The case has reached closure: stale half-finished attempts from
		// earlier partial runs no longer describe its document set.
		if err := s.store.DeleteNotCompletedAttemptsByCase(c.ID); err != nil {
			s.log.Error("clearing stale attempts failed, skipping case",
				zap.String("case", c.ID), zap.Error(err))
			continue
		}

		for _, doc := range c.ArchivableDocuments() {
			s.archiveDocument(ctx, run, c, doc)
		}
	}
}

// archiveDocument handles one (document, case) pair: dedup against all
// previous runs, persist the attempt marker, then deliver the payload to
// the sink.
func (s *Service) archiveDocument(ctx context.Context, run *domain.BatchRun, c *domain.Case, doc domain.Document) {
	existing, err := s.store.GetAttempt(doc.ID, c.ID)
	if err != nil {
		s.log.Error("attempt lookup failed, skipping document",
			zap.String("document", doc.ID), zap.String("case", c.ID), zap.Error(err))
		return
	}
	if existing != nil {
		s.log.Info("document already handled by an earlier run or page",
			zap.String("document", doc.ID), zap.String("case", c.ID))
		return
	}

	cat := category.FromCode(doc.CategoryCode)
	attempt := &domain.ArchiveAttempt{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		CaseID:       c.ID,
		DocumentName: doc.Name,
		DocumentType: cat.Description,
		BatchRunID:   run.ID,
		Status:       domain.StatusNotCompleted,
	}

	// Persisted before the sink call: a crash in between leaves a durable
	// NOT_COMPLETED marker instead of a silently lost document.
	if err := s.store.SaveAttempt(attempt); err != nil {
		s.log.Error("persisting attempt failed, skipping document",
			zap.String("document", doc.ID), zap.String("case", c.ID), zap.Error(err))
		return
	}

	files, err := s.source.FetchDocument(ctx, doc.ID)
	if err != nil {
		s.log.Error("fetching document payload failed, leaving attempt for rerun",
			zap.String("document", doc.ID), zap.String("case", c.ID), zap.Error(err))
		return
	}

	for i := range files {
		s.archiveFile(ctx, attempt, c, doc, cat, &files[i])
	}
	s.emit(EventAttemptUpdated, attempt)
}

// archiveFile delivers one file payload under the attempt. Once a file has
// completed the attempt, remaining payloads for the same document id are
// skipped.
func (s *Service) archiveFile(ctx context.Context, attempt *domain.ArchiveAttempt, c *domain.Case,
	doc domain.Document, cat category.Category, file *domain.File) {
	if attempt.ArchiveID != "" {
		return
	}

	attachment := buildAttachment(doc, file)
	metadata := buildMetadata(c, doc, cat, file, attachment.Name)

	archiveID, err := s.sink.Store(ctx, attachment, metadata)
	if err != nil {
		s.log.Error("archive request failed, continuing with the rest",
			zap.String("document", doc.ID), zap.String("case", c.ID), zap.Error(err))

		if archive.IsFormatError(err) {
			s.log.Info("failure relates to the file extension, notifying for manual handling",
				zap.String("document", doc.ID))
			s.notifyManualHandling(attempt)
		}
		if err := s.store.SaveAttempt(attempt); err != nil {
			s.log.Error("persisting attempt failed", zap.String("attempt", attempt.ID), zap.Error(err))
		}
		return
	}

	attempt.Status = domain.StatusCompleted
	attempt.ArchiveID = archiveID
	attempt.ArchiveURL = s.archiveURL(archiveID)
	if err := s.store.SaveAttempt(attempt); err != nil {
		s.log.Error("persisting completed attempt failed", zap.String("attempt", attempt.ID), zap.Error(err))
		return
	}

	s.log.Info("document archived",
		zap.String("document", doc.ID),
		zap.String("case", c.ID),
		zap.String("archive_id", archiveID))

	if cat.Geotechnical() {
		s.notifyGeoArchived(ctx, c, attempt)
	}
}

// notifyGeoArchived tells the land registry about an archived geotechnical
// document, enriched with the property designation when the register knows
// the case's property.
func (s *Service) notifyGeoArchived(ctx context.Context, c *domain.Case, attempt *domain.ArchiveAttempt) {
	designation := ""
	if c.PropertyRef != "" {
		prop, err := s.properties.ByReference(ctx, c.PropertyRef)
		if err != nil {
			s.log.Warn("property lookup failed, notifying with partial data",
				zap.String("case", c.ID), zap.Error(err))
		} else if prop != nil {
			designation = prop.FullDesignation()
		}
	}

	body, err := notify.GeoArchivedBody(attempt.CaseID, designation)
	if err != nil {
		s.log.Error("rendering notification failed", zap.Error(err))
		return
	}
	s.send(notify.Notification{
		Kind:      notify.KindGeoArchived,
		Recipient: s.opts.GeoRecipient,
		Subject:   notify.SubjectGeoArchived,
		HTMLBody:  body,
	})
}

func (s *Service) notifyManualHandling(attempt *domain.ArchiveAttempt) {
	body, err := notify.ManualHandlingBody(attempt.CaseID, attempt.DocumentName, attempt.DocumentType)
	if err != nil {
		s.log.Error("rendering notification failed", zap.Error(err))
		return
	}
	s.send(notify.Notification{
		Kind:      notify.KindManualHandling,
		Recipient: s.opts.ManualHandlingRecipient,
		Subject:   notify.SubjectManualHandling,
		HTMLBody:  body,
	})
}

// send delivers a notification best-effort. Notification failures are
// logged and never reach archival state.
func (s *Service) send(n notify.Notification) {
	if err := s.notifier.Send(n); err != nil {
		s.log.Error("sending notification failed, recipient must be informed manually",
			zap.String("recipient", n.Recipient), zap.Error(err))
	}
}
