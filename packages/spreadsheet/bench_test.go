package spreadsheet

import (
	"fmt"
	"testing"
)

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := New()
		for row := 1; row <= 100; row++ {
			for col := 1; col <= 26; col++ {
				s.SetContent(fmt.Sprintf("%c%d", 'A'+col-1, row), fmt.Sprint(row*col))
			}
		}
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	s := New()
	s.SetContent("A1", "1")
	for i := 2; i <= 1000; i++ {
		s.SetContent(fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d+1", i-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetContent("A1", fmt.Sprint(i))
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	s := New()
	s.SetContent("A1", "100")
	for i := 2; i <= 500; i++ {
		s.SetContent(fmt.Sprintf("B%d", i), "=A1*2")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetContent("A1", fmt.Sprint(i))
	}
}

func BenchmarkComplexNestedFormulas(b *testing.B) {
	s := New()
	for i := 1; i <= 20; i++ {
		s.SetContent(fmt.Sprintf("A%d", i), fmt.Sprint(i))
		s.SetContent(fmt.Sprintf("B%d", i), fmt.Sprint(i*2))
	}
	for i := 1; i <= 20; i++ {
		s.SetContent(fmt.Sprintf("C%d", i), fmt.Sprintf("=((A%d+B%d)*(A%d-B%d))/(1+A%d*B%d)", i, i, i, i, i, i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetContent("A1", fmt.Sprint(i))
		s.SetContent("B20", fmt.Sprint(i+1))
	}
}

func BenchmarkCycleRejection(b *testing.B) {
	s := New()
	for i := 1; i < 500; i++ {
		s.SetContent(fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d", i+1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetContent("A500", "=A1")
	}
}
