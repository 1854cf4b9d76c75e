package securerand

import (
	"bytes"
	"errors"
	"io"
	"testing"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

type constReader byte

func (c constReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(c)
	}
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestUniformIntCoversRangeUniformly(t *testing.T) {
	const (
		n      = 10
		trials = 100000
	)
	counts := make([]int, n)
	for i := 0; i < trials; i++ {
		v, err := UniformInt(n)
		if err != nil {
			t.Fatalf("UniformInt: %v", err)
		}
		if v < 0 || v >= n {
			t.Fatalf("out of range: got=%d", v)
		}
		counts[v]++
	}
	expected := float64(trials) / n
	var chi2 float64
	for i, c := range counts {
		if c == 0 {
			t.Fatalf("value %d never drawn", i)
		}
		d := float64(c) - expected
		chi2 += d * d / expected
	}
	// 9 degrees of freedom; 40 is far beyond the p=0.0001 critical value.
	if chi2 > 40 {
		t.Fatalf("chi-square too large: %.2f counts=%v", chi2, counts)
	}
}

func TestUniformIntFastPathAndInvalid(t *testing.T) {
	v, err := UniformInt(1)
	if err != nil || v != 0 {
		t.Fatalf("max=1: want=0,nil got=%d,%v", v, err)
	}
	for _, max := range []int{0, -5} {
		if _, err := UniformInt(max); !errors.Is(err, apperrors.ErrInvalidArgument) {
			t.Fatalf("max=%d: want ErrInvalidArgument got=%v", max, err)
		}
	}
}

func TestUniformIntLargeMax(t *testing.T) {
	const max = 1<<62 + 12345
	for i := 0; i < 100; i++ {
		v, err := UniformInt(max)
		if err != nil {
			t.Fatalf("UniformInt: %v", err)
		}
		if v < 0 || v >= max {
			t.Fatalf("out of range: %d", v)
		}
	}
}

func TestUniformIntExhaustedEntropy(t *testing.T) {
	// 0xFF is always above the largest multiple of 3 in one byte.
	src := NewSource(constReader(0xFF))
	_, err := src.UniformInt(3)
	if !errors.Is(err, apperrors.ErrExhaustedEntropy) {
		t.Fatalf("want ErrExhaustedEntropy got=%v", err)
	}
	_, err = NewSource(failingReader{}).UniformInt(7)
	if !errors.Is(err, apperrors.ErrExhaustedEntropy) {
		t.Fatalf("read failure: want ErrExhaustedEntropy got=%v", err)
	}
}

func TestUniformIntAcceptsBelowLimit(t *testing.T) {
	src := NewSource(bytes.NewReader([]byte{0xFF, 0xFF, 0x07}))
	v, err := src.UniformInt(3)
	if err != nil {
		t.Fatalf("UniformInt: %v", err)
	}
	if v != 7%3 {
		t.Fatalf("value: want=%d got=%d", 7%3, v)
	}
}

func TestUniformFloatRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		f, err := UniformFloat()
		if err != nil {
			t.Fatalf("UniformFloat: %v", err)
		}
		if f < 0 || f >= 1 {
			t.Fatalf("out of range: %v", f)
		}
	}
	f, err := NewSource(constReader(0xFF)).UniformFloat()
	if err != nil || f >= 1 {
		t.Fatalf("all-ones draw must stay below 1: got=%v err=%v", f, err)
	}
}
