package pipeline

import (
	"context"
	"log/slog"

	"github.com/deckgest/deckgest/internal/assembler"
)

// Worker processes one extraction job at a time.
type Worker struct {
	asm *assembler.Assembler
	log *slog.Logger
}

func NewWorker(asm *assembler.Assembler, log *slog.Logger) *Worker {
	return &Worker{asm: asm, log: log}
}

// Process runs the extraction for a job and records the outcome.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	job.SetStatus(StatusProcessing)
	log.Info("processing document")

	res, err := w.asm.Process(ctx, job.DocID, job.Filename, job.FileData(), job.Options)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed)
		return
	}

	job.SetResult(res)
	job.SetStatus(StatusCompleted)
	log.Info("document processed",
		"text_chunks", len(res.TextChunks),
		"image_chunks", len(res.ImageChunks))
}
