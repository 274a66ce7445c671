package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/bandscore/internal/exam"
)

// hashStore records the checksum of each imported file.
type hashStore interface {
	GetImportedFileHash(ctx context.Context, path string) (string, error)
	SetImportedFileHash(ctx context.Context, path, hash string) error
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import tests and exams from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	addStoreFlags(f)
	addLogFlags(f)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	b, err := openBackend(ctx, v)
	if err != nil {
		return err
	}
	defer b.Close()

	svc := newService(b, nil, v, nil)
	return loadContent(ctx, svc, b.sql, args)
}

// loadContent imports each file unless its checksum matches the last
// import. Changed files replace the stored tests; sessions keep their scores.
func loadContent(ctx context.Context, svc *exam.Service, hashes hashStore, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := hashes.GetImportedFileHash(ctx, path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("content file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Info("content file changed since last import, re-importing", "path", path)
		}

		doc, err := exam.ParseDocument(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		res, err := svc.Import(ctx, doc)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}

		if err := hashes.SetImportedFileHash(ctx, path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported content", "path", path, "tests", res.Tests, "exams", res.Exams, "exam_ids", res.ExamIDs)
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
