package kmer

import (
	"context"
	"strings"
	"testing"

	"github.com/sbp-tools/sbp/pkg/errors"
	"github.com/sbp-tools/sbp/pkg/io/fasta"
)

func TestS1TwoReadsK3(t *testing.T) {
	input := ">r1\nATGCA\n>r2\nTGCAA\n"
	r := fasta.NewReader(strings.NewReader(input))
	g, stats, err := Build(context.Background(), r, 3, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if stats.ReadsConsumed != 2 {
		t.Errorf("ReadsConsumed = %d, want 2", stats.ReadsConsumed)
	}

	wATG, _ := g.WeightOf("ATG", "TGC")
	wTGC, _ := g.WeightOf("TGC", "GCA")
	wGCA, _ := g.WeightOf("GCA", "CAA")
	if wATG != 1 {
		t.Errorf("weight(ATG,TGC) = %d, want 1", wATG)
	}
	if wTGC != 2 {
		t.Errorf("weight(TGC,GCA) = %d, want 2", wTGC)
	}
	if wGCA != 1 {
		t.Errorf("weight(GCA,CAA) = %d, want 1", wGCA)
	}
}

func TestS2SelfLoop(t *testing.T) {
	input := ">r1\nAAAAA\n"
	r := fasta.NewReader(strings.NewReader(input))
	g, _, err := Build(context.Background(), r, 3, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.VertexCount() != 1 {
		t.Fatalf("VertexCount() = %d, want 1", g.VertexCount())
	}
	w, ok := g.WeightOf("AAA", "AAA")
	if !ok || w != 2 {
		t.Errorf("self-loop weight = %d, %v; want 2, true", w, ok)
	}
}

func TestS6EmptyInput(t *testing.T) {
	r := fasta.NewReader(strings.NewReader(""))
	g, stats, err := Build(context.Background(), r, 3, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.VertexCount() != 0 || stats.ReadsConsumed != 0 {
		t.Errorf("expected empty graph, got vertices=%d reads=%d", g.VertexCount(), stats.ReadsConsumed)
	}
}

func TestS6KLargerThanEveryRead(t *testing.T) {
	r := fasta.NewReader(strings.NewReader(">r1\nAT\n"))
	g, stats, err := Build(context.Background(), r, 5, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.VertexCount() != 0 || stats.ReadsConsumed != 0 {
		t.Errorf("expected empty graph, got vertices=%d reads=%d", g.VertexCount(), stats.ReadsConsumed)
	}
}

func TestBadK(t *testing.T) {
	r := fasta.NewReader(strings.NewReader(">r1\nATGCA\n"))
	_, _, err := Build(context.Background(), r, 1, nil)
	if !errors.Is(err, errors.CodeBadInput) {
		t.Fatalf("Build with k=1: err = %v", err)
	}
}

func TestCancellation(t *testing.T) {
	r := fasta.NewReader(strings.NewReader(">r1\nATGCA\n"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Build(ctx, r, 3, nil)
	if !errors.Is(err, errors.CodeCancelled) {
		t.Fatalf("Build with cancelled context: err = %v", err)
	}
}
