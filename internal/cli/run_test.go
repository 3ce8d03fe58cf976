package cli

import "testing"

func TestValidateRequiresKWithFasta(t *testing.T) {
	opts := runOptions{fastaPath: "reads.fasta"}
	if err := opts.validate(); err == nil {
		t.Error("expected an error when -f is set without -k")
	}
}

func TestValidateRequiresFastaWithK(t *testing.T) {
	opts := runOptions{k: 21}
	if err := opts.validate(); err == nil {
		t.Error("expected an error when -k is set without -f")
	}
}

func TestValidateAllowsListWithoutFasta(t *testing.T) {
	opts := runOptions{listGraphs: true}
	if err := opts.validate(); err != nil {
		t.Errorf("validate() with -l alone = %v, want nil", err)
	}
}

func TestValidateAllowsRemoveWithoutFasta(t *testing.T) {
	opts := runOptions{removeName: "graph1"}
	if err := opts.validate(); err != nil {
		t.Errorf("validate() with -r alone = %v, want nil", err)
	}
}

func TestValidateRejectsNoOperation(t *testing.T) {
	opts := runOptions{}
	if err := opts.validate(); err == nil {
		t.Error("expected an error when no operation flag is set")
	}
}

func TestValidateRejectsMutuallyExclusiveFlags(t *testing.T) {
	opts := runOptions{fastaPath: "reads.fasta", k: 21, listGraphs: true}
	if err := opts.validate(); err == nil {
		t.Error("expected an error mixing -f with -l")
	}
}

func TestValidateAcceptsFastaWithK(t *testing.T) {
	opts := runOptions{fastaPath: "reads.fasta", k: 21}
	if err := opts.validate(); err != nil {
		t.Errorf("validate() with -f and -k = %v, want nil", err)
	}
}

func TestNeedsDBTrueForPersist(t *testing.T) {
	opts := runOptions{fastaPath: "reads.fasta", k: 21, persistAs: "run1"}
	if !opts.needsDB() {
		t.Error("needsDB() should be true when -s is set")
	}
}

func TestNeedsDBFalseForPlainPipeline(t *testing.T) {
	opts := runOptions{fastaPath: "reads.fasta", k: 21}
	if opts.needsDB() {
		t.Error("needsDB() should be false for a plain -f/-k run")
	}
}
