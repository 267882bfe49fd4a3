package ingest

import (
	"context"
	"fmt"
	"os"

	"github.com/nineaccord/salesboard/internal/config"
	"github.com/nineaccord/salesboard/internal/storage"
)

// OptionsFromConfig derives source options from the process configuration.
// Service account credentials are only read for the sheets source.
func OptionsFromConfig(cfg *config.Config) (SourceOptions, error) {
	opts := SourceOptions{
		Kind:            cfg.Ingest.Source,
		WorkbookPath:    cfg.Ingest.WorkbookPath,
		SpreadsheetName: cfg.Sheets.SpreadsheetName,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		ObjectKey:       cfg.Object.Key,
		DownloadDir:     cfg.Object.DownloadDir,
	}

	if opts.Kind == SourceSheets || opts.Kind == "" {
		switch {
		case cfg.Sheets.CredentialsJSON != "":
			opts.CredentialsJSON = []byte(cfg.Sheets.CredentialsJSON)
		case cfg.Sheets.CredentialsFile != "":
			data, err := os.ReadFile(cfg.Sheets.CredentialsFile)
			if err != nil {
				return SourceOptions{}, fmt.Errorf("read google credentials: %w", err)
			}
			opts.CredentialsJSON = data
		}
	}
	return opts, nil
}

// SourceFromConfig builds the configured source, connecting object storage
// when the source needs it.
func SourceFromConfig(ctx context.Context, cfg *config.Config) (Source, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var objects storage.ObjectStorage
	if opts.Kind == SourceObject {
		client, err := storage.NewMinioClient(MinioConfig(cfg.Object))
		if err != nil {
			return nil, err
		}
		objects = client
	}
	return NewSource(ctx, opts, objects)
}

// MinioConfig maps object storage settings onto the storage client config.
func MinioConfig(cfg config.ObjectConfig) storage.MinioConfig {
	return storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	}
}
