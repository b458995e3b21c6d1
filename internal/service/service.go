// Package service implements the dataset operations the CLI exposes on top
// of the inference core: upload (infer, convert, store), list, retrieve and
// label override.
package service

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/garlicdevs/csv-cleaner/pkg/catalog"
	"github.com/garlicdevs/csv-cleaner/pkg/compression"
	"github.com/garlicdevs/csv-cleaner/pkg/config"
	"github.com/garlicdevs/csv-cleaner/pkg/convert"
	"github.com/garlicdevs/csv-cleaner/pkg/errors"
	"github.com/garlicdevs/csv-cleaner/pkg/export"
	"github.com/garlicdevs/csv-cleaner/pkg/inference"
	"github.com/garlicdevs/csv-cleaner/pkg/metrics"
	"github.com/garlicdevs/csv-cleaner/pkg/models"
)

// Service ties an Inferencer to a Catalog.
type Service struct {
	inferencer *inference.Inferencer
	catalog    *catalog.Catalog
	format     export.Format
	algorithm  compression.Algorithm
	compressor compression.Compressor
	logger     *zap.Logger
	now        func() time.Time
}

// New validates the output settings and builds a service.
func New(in *inference.Inferencer, cat *catalog.Catalog, output config.OutputConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	format, err := export.ParseFormat(output.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output format")
	}
	algo, err := compression.ParseAlgorithm(output.Compression)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output compression")
	}
	return &Service{
		inferencer: in,
		catalog:    cat,
		format:     format,
		algorithm:  algo,
		compressor: comp,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// UploadResult is the outcome of one upload.
type UploadResult struct {
	Dataset     *models.Dataset
	DownloadURL string
	Outcomes    []convert.Outcome
}

// Upload runs inference on path, stores the converted artifact and replaces
// the record named name. An empty name uses the file name of path. Nothing
// is written when the run fails, and a failed record write leaves the
// previous record and its artifact in place.
func (s *Service) Upload(ctx context.Context, path, name string) (*UploadResult, error) {
	res, err := s.inferencer.Run(ctx, path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = res.Dataset
	}
	log := s.logger.With(zap.String("run_id", res.RunID), zap.String("dataset", name))

	timer := metrics.NewTimer(metrics.StageExport)
	data, err := export.Encode(res.Table, s.format, s.compressor)
	timer.Stop()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode converted table")
	}

	previous, err := s.catalog.Metadata.Get(ctx, name)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	key := catalog.ArtifactKey(name, res.RunID, export.ArtifactName(s.format, s.algorithm))
	if err := s.catalog.Blobs.Put(ctx, key, data, s.format.ContentType()); err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		Name:        name,
		Columns:     res.Reports,
		ArtifactKey: key,
		Format:      string(s.format),
		Compression: string(s.algorithm),
		Encoding:    res.Load.Encoding,
		Rows:        res.Table.NumRows(),
		RunID:       res.RunID,
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.catalog.Metadata.Put(ctx, ds); err != nil {
		if derr := s.catalog.Blobs.Delete(ctx, key); derr != nil {
			log.Warn("failed to remove unreferenced artifact", zap.String("artifact", key), zap.Error(derr))
		}
		return nil, err
	}
	if previous != nil && previous.ArtifactKey != key {
		if err := s.catalog.Blobs.Delete(ctx, previous.ArtifactKey); err != nil {
			log.Warn("failed to remove replaced artifact",
				zap.String("artifact", previous.ArtifactKey), zap.Error(err))
		}
	}

	log.Info("dataset stored",
		zap.String("artifact", key),
		zap.Int("bytes", len(data)),
		zap.Int("columns", len(ds.Columns)))
	return &UploadResult{
		Dataset:     ds,
		DownloadURL: s.catalog.Blobs.URL(key),
		Outcomes:    res.Outcomes,
	}, nil
}

// List returns every stored dataset ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.Dataset, error) {
	return s.catalog.Metadata.List(ctx)
}

// Metadata is the retrieval payload of one dataset.
type Metadata struct {
	DownloadURL string                `json:"download_url"`
	Columns     []models.ColumnReport `json:"metadata"`
}

// Metadata returns the download locator and column reports of name.
func (s *Service) Metadata(ctx context.Context, name string) (*Metadata, error) {
	ds, err := s.catalog.Metadata.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		DownloadURL: s.catalog.Blobs.URL(ds.ArtifactKey),
		Columns:     ds.Columns,
	}, nil
}

// Content is a stored artifact after decompression.
type Content struct {
	Dataset     *models.Dataset
	ContentType string
	Data        []byte
	// Text is set for csv artifacts
	Text string
}

// Content returns the converted artifact of name. CSV artifacts are also
// decoded to text, as UTF-8 when valid and Latin-1 otherwise.
func (s *Service) Content(ctx context.Context, name string) (*Content, error) {
	ds, err := s.catalog.Metadata.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	raw, err := s.catalog.Blobs.Get(ctx, ds.ArtifactKey)
	if err != nil {
		return nil, err
	}

	algo, err := compression.ParseAlgorithm(ds.Compression)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "stored artifact has an unknown compression")
	}
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create decompressor")
	}
	data, err := comp.Decompress(raw)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeDecoding, "failed to decompress artifact")
	}

	format, err := export.ParseFormat(ds.Format)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "stored artifact has an unknown format")
	}
	out := &Content{Dataset: ds, ContentType: format.ContentType(), Data: data}
	if format == export.FormatCSV {
		text, err := decodeText(data)
		if err != nil {
			return nil, err
		}
		out.Text = text
	}
	return out, nil
}

func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeDecoding, "artifact is neither UTF-8 nor Latin-1")
	}
	return string(decoded), nil
}

// Override sets the friendly label of the named columns of dataset name and
// returns the updated record with the number of columns changed. Unknown
// column names are ignored and the column types never change.
func (s *Service) Override(ctx context.Context, name string, labels map[string]string) (*models.Dataset, int, error) {
	ds, err := s.catalog.Metadata.Get(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	changed := ds.ApplyLabels(labels)
	if changed == 0 {
		return ds, 0, nil
	}
	ds.UpdatedAt = s.now().UTC()
	if err := s.catalog.Metadata.Put(ctx, ds); err != nil {
		return nil, 0, err
	}
	s.logger.Info("labels overridden",
		zap.String("dataset", name),
		zap.Int("changed", changed),
		zap.Int("requested", len(labels)))
	return ds, changed, nil
}
