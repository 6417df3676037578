package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rubika_content_bot/content"
	"rubika_content_bot/localize"
	"rubika_content_bot/logging"
	"rubika_content_bot/media"
	"rubika_content_bot/metrics"
	"rubika_content_bot/publisher"
	"rubika_content_bot/state"
)

// SendInterval is the pause between two publish calls, kept under the bot
// API's rate limit.
const SendInterval = 2 * time.Second

// ImageResolver finds an image URL; "" means no image.
type ImageResolver interface {
	Resolve(ctx context.Context, query string, category localize.Category) string
}

// CaptionFormatter builds the post caption.
type CaptionFormatter interface {
	Format(ctx context.Context, item content.Item, category localize.Category) string
}

// Poster publishes one post.
type Poster interface {
	Publish(ctx context.Context, imageURL, caption string) error
}

// Summary counts what a run did.
type Summary struct {
	Read      int
	Sent      int
	Failed    int
	Skipped   int
	RowErrors int
}

// Runner processes the content file once, top to bottom.
type Runner struct {
	ContentPath   string
	StatePath     string
	AnalyticsPath string

	// DryRun renders captions without publishing or touching state. They go
	// to Preview when set, otherwise to the log.
	DryRun  bool
	Preview io.Writer

	Tables    *localize.Tables
	Resolver  ImageResolver
	Formatter CaptionFormatter
	Poster    Poster
	Metrics   *metrics.Recorder
	Sleep     func(time.Duration)
	Logger    *logrus.Logger
}

// Run never fails: every problem is logged and counted, and a missing
// content file yields an empty summary.
func (r *Runner) Run(ctx context.Context) Summary {
	r.defaults()
	log := r.Logger.WithField("run_id", uuid.NewString())
	defer r.Metrics.Finish(time.Now())

	var sum Summary

	res, err := content.ReadItems(r.ContentPath)
	if err != nil {
		if errors.Is(err, content.ErrResourceNotFound) {
			log.WithField("path", r.ContentPath).Error("Content file not found; nothing to post")
		} else {
			log.WithError(err).Error("Reading content file failed; nothing to post")
		}
		return sum
	}
	sum.Read = len(res.Items)
	sum.RowErrors = len(res.RowErrors)
	for _, rowErr := range res.RowErrors {
		log.WithError(rowErr).Warn("Skipping malformed row")
		r.Metrics.Skipped(metrics.SkipInvalidRow)
	}

	st, err := state.LoadPublishState(r.StatePath)
	if err != nil {
		log.WithError(err).Warn("Publish state unreadable; starting without dedup marker")
		st = state.PublishState{}
	}
	if !r.DryRun {
		if _, err := state.LoadAnalytics(r.AnalyticsPath); err != nil {
			log.WithError(err).Warn("Analytics file unavailable")
		}
	}

	pause := false
	for _, item := range res.Items {
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("Run interrupted")
			break
		}
		itemLog := log.WithFields(logging.Fields{"row": item.Row, "item": item.Title})

		if strings.TrimSpace(item.Title) == "" {
			sum.Skipped++
			r.Metrics.Skipped(metrics.SkipEmptyTitle)
			continue
		}
		id := item.ID()
		if st.IsLast(id) {
			itemLog.WithField("reason", metrics.SkipAlreadyPosted).Info("Skipping item posted by the previous run")
			sum.Skipped++
			r.Metrics.Skipped(metrics.SkipAlreadyPosted)
			continue
		}

		category := r.Tables.CategoryOf(item.Title)
		itemLog = itemLog.WithField("category", category)
		itemLog.Info("Processing item")

		imageURL := r.imageFor(ctx, item, category)
		caption := r.Formatter.Format(ctx, item, category)

		if r.DryRun {
			r.preview(itemLog, item, imageURL, caption)
			continue
		}

		if pause {
			r.Sleep(SendInterval)
		}
		err := r.Poster.Publish(ctx, imageURL, caption)
		switch {
		case err == nil:
			sum.Sent++
			r.Metrics.PostSent()
			pause = true
			itemLog.Info("Post sent")
			r.record(itemLog, id)
		case errors.Is(err, publisher.ErrMissingCredential):
			sum.Skipped++
			r.Metrics.Skipped(metrics.SkipMissingCreds)
			itemLog.WithError(err).Error("Cannot publish; set BOT_TOKEN and CHAT_ID")
		default:
			sum.Failed++
			r.Metrics.PostFailed()
			pause = true
			itemLog.WithError(err).Error("Publish failed; continuing with next item")
		}
	}

	log.WithFields(logging.Fields{
		"read":       sum.Read,
		"sent":       sum.Sent,
		"failed":     sum.Failed,
		"skipped":    sum.Skipped,
		"row_errors": sum.RowErrors,
	}).Info("Run finished")
	return sum
}

func (r *Runner) imageFor(ctx context.Context, item content.Item, category localize.Category) string {
	if item.MediaURL != "" {
		return item.MediaURL
	}
	if u := r.Resolver.Resolve(ctx, item.Title, category); u != "" {
		return u
	}
	r.Metrics.ImageFallback()
	return media.PlaceholderURL
}

// record flushes the dedup marker and the sent counter right after a
// successful publish. A crash before this point reposts the item next run.
func (r *Runner) record(log *logrus.Entry, id string) {
	if err := state.SavePublishState(r.StatePath, id); err != nil {
		log.WithError(err).Error("Saving publish state failed")
	}
	if _, err := state.IncrementPostsSent(r.AnalyticsPath); err != nil {
		log.WithError(err).Error("Updating analytics failed")
	}
}

func (r *Runner) preview(log *logrus.Entry, item content.Item, imageURL, caption string) {
	if r.Preview == nil {
		log.WithFields(logging.Fields{"image": imageURL, "caption": caption}).Info("Dry run; not publishing")
		return
	}
	fmt.Fprintf(r.Preview, "── row %d ── %s\n🖼  %s\n\n%s\n\n", item.Row, item.ID(), imageURL, caption)
}

func (r *Runner) defaults() {
	if r.Tables == nil {
		r.Tables = localize.DefaultTables()
	}
	if r.Metrics == nil {
		r.Metrics = metrics.NewRecorder()
	}
	if r.Sleep == nil {
		r.Sleep = time.Sleep
	}
	if r.Logger == nil {
		r.Logger = logging.Discard()
	}
}
