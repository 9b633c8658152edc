package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Rejection reasons.
const (
	ReasonUnsupported = "unsupported file type"
	ReasonEmpty       = "file is empty"
)

type intakeOutcome struct {
	file      *UploadedFile
	rejection *Rejection
}

// Intake validates and encodes sources concurrently. Every source produces
// exactly one outcome; accepted and rejected are both in input order.
func Intake(ctx context.Context, sources []Source, limits Limits) ([]*UploadedFile, []Rejection, error) {
	outcomes := make([]intakeOutcome, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = intakeOne(src, limits)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	accepted := lo.FilterMap(outcomes, func(o intakeOutcome, _ int) (*UploadedFile, bool) {
		return o.file, o.file != nil
	})
	rejected := lo.FilterMap(outcomes, func(o intakeOutcome, _ int) (Rejection, bool) {
		if o.rejection == nil {
			return Rejection{}, false
		}
		return *o.rejection, true
	})
	return accepted, rejected, nil
}

func intakeOne(src Source, limits Limits) intakeOutcome {
	reject := func(reason string) intakeOutcome {
		return intakeOutcome{rejection: &Rejection{Name: src.Name, Reason: reason}}
	}

	mt, ok := ResolveMIME(src.Name, src.DeclaredType)
	if !ok {
		return reject(ReasonUnsupported)
	}
	size := int64(len(src.Data))
	if size == 0 {
		return reject(ReasonEmpty)
	}
	if limit := limits.maxFileBytes(); size > limit {
		return reject(fmt.Sprintf("file exceeds size limit of %d bytes", limit))
	}

	f := &UploadedFile{
		ID:         uuid.New().String(),
		Name:       src.Name,
		MIMEType:   mt,
		Size:       size,
		UploadedAt: time.Now(),
		Data:       src.Data,
		Base64:     EncodeBase64(src.Data),
	}
	if mt == MIMEPDF {
		f.Pages = PageCount(src.Data)
	}
	return intakeOutcome{file: f}
}
