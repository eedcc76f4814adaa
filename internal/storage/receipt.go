// Package storage persists uploaded payment receipts on the local filesystem.
// Files are written before the database transaction, so callers must Remove a
// receipt whose transaction rolled back.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"tabeya-be/internal/apperr"
	"tabeya-be/internal/logger"
	"tabeya-be/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxReceiptSize = 5 << 20

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Kind string

const (
	KindOrder       Kind = "order"
	KindReservation Kind = "reservation"
)

func (k Kind) dir() string { return string(k) + "_receipts" }

// Receipt locates a stored file. Path is relative to the upload root and uses
// forward slashes.
type Receipt struct {
	Path     string
	FileName string
	MIME     string
}

type ReceiptStore struct {
	root string
	now  func() time.Time
}

func NewReceiptStore(root string) *ReceiptStore {
	return &ReceiptStore{root: root, now: time.Now}
}

// Save validates content and size, then writes the receipt under
// <root>/<kind>_receipts/YYYY/MM/.
func (s *ReceiptStore) Save(ctx context.Context, kind Kind, customerID int64, r io.Reader) (*Receipt, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "storage"),
		zap.String("method", "Save"),
	)

	data, err := io.ReadAll(io.LimitReader(r, MaxReceiptSize+1))
	if err != nil {
		log.Error("failed to read receipt upload", zap.Error(err))
		return nil, apperr.UploadWrite(err)
	}
	if len(data) > MaxReceiptSize {
		return nil, apperr.Upload(ReasonReceiptTooLarge, ErrReceiptTooLarge)
	}

	mtype := mimetype.Detect(data)
	if len(data) == 0 || !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		log.Warn("rejected receipt type", zap.String("mime", mtype.String()))
		return nil, apperr.Upload(ReasonInvalidReceiptType, ErrInvalidReceiptType)
	}

	now := s.now()
	rel := path.Join(kind.dir(), now.Format("2006"), now.Format("01"))
	name := fmt.Sprintf("%s_%d_%d_%s%s",
		kind, customerID, now.Unix(),
		strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		mtype.Extension(),
	)

	dir := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("failed to create receipt directory", zap.String("dir", dir), zap.Error(err))
		return nil, apperr.UploadWrite(err)
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error("failed to create receipt file", zap.Error(err))
		return nil, apperr.UploadWrite(err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		log.Error("failed to write receipt file", zap.Error(err))
		return nil, apperr.UploadWrite(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, apperr.UploadWrite(err)
	}

	receipt := &Receipt{Path: path.Join(rel, name), FileName: name, MIME: mtype.String()}
	log.Info("receipt stored", zap.String("path", receipt.Path), zap.Int("bytes", len(data)))
	return receipt, nil
}

// Remove deletes a stored receipt. A receipt that is already gone is not an error.
func (s *ReceiptStore) Remove(ctx context.Context, rec *Receipt) error {
	if rec == nil {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rec.Path)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Remover is satisfied by *ReceiptStore.
type Remover interface {
	Remove(ctx context.Context, rec *Receipt) error
}

// Discard removes a receipt whose transaction rolled back. A failed removal
// leaves an orphan on disk, which is logged and counted.
func Discard(ctx context.Context, rm Remover, rec *Receipt) {
	if rec == nil {
		return
	}
	if err := rm.Remove(ctx, rec); err != nil {
		metrics.OrphanedReceipts.Inc()
		logger.FromCtx(ctx).Error("orphaned receipt left on disk",
			zap.String("path", rec.Path),
			zap.Error(err),
		)
	}
}
