package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateAndSetDefaultsRequiresFASTAPath(t *testing.T) {
	opts := Options{K: 3}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error when FASTAPath is empty")
	}
}

func TestValidateAndSetDefaultsRejectsSmallK(t *testing.T) {
	opts := Options{FASTAPath: "reads.fasta", K: 1}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error when k < 2")
	}
}

func TestValidateAndSetDefaultsFillsLogger(t *testing.T) {
	opts := Options{FASTAPath: "reads.fasta", K: 3}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Logger == nil {
		t.Error("expected a default logger to be filled in")
	}
}

func writeFASTA(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "reads.fasta")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write fasta fixture: %v", err)
	}
	return path
}

func TestExecuteEndToEndOnSimpleBubble(t *testing.T) {
	// Two reads sharing a k=3 branch-and-rejoin pattern produce a small
	// diamond in the de Bruijn graph, giving Execute at least one
	// superbubble to report end to end without any external dependency.
	path := writeFASTA(t, ">r1\nAAAGAAACAAA\n>r2\nAAAGAAATAAA\n")

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		FASTAPath: path,
		K:         3,
		Algorithm: DefaultAlgorithm,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.KmerStats.ReadsConsumed != 2 {
		t.Errorf("ReadsConsumed = %d, want 2", result.KmerStats.ReadsConsumed)
	}
	if result.SubGraphCount == 0 {
		t.Error("expected at least one SubGraph")
	}
}

func TestExecuteWithoutDatabaseFailsPersist(t *testing.T) {
	path := writeFASTA(t, ">r1\nAAAGAAACAAA\n")

	runner := NewRunner(nil, nil, nil)
	_, err := runner.Execute(context.Background(), Options{
		FASTAPath: path,
		K:         3,
		PersistAs: "myrun",
	})
	if err == nil {
		t.Error("expected an error persisting without a configured database")
	}
}

func TestExecuteDumpsEachStage(t *testing.T) {
	path := writeFASTA(t, ">r1\nAAAGAAACAAA\n")

	runner := NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		FASTAPath:     path,
		K:             3,
		DumpEachStage: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, ok := result.StageDots["kmer"]; !ok {
		t.Error("expected a DOT dump for the kmer stage")
	}
	if _, ok := result.StageDots["indexed"]; !ok {
		t.Error("expected a DOT dump for the indexed stage")
	}
}

func TestListGraphsWithoutDatabaseFails(t *testing.T) {
	runner := NewRunner(nil, nil, nil)
	if _, err := runner.ListGraphs(context.Background()); err == nil {
		t.Error("expected an error listing graphs without a configured database")
	}
}
