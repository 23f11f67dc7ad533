package mood

import (
	"testing"

	model "github.com/zhouzirui/manasbridge/backend/internal/model/mood"
)

func TestSuggestStressedStudent(t *testing.T) {
	got := Suggest("I'm so stressed about my exams and the deadline")
	if got.Mood != model.Stressed {
		t.Fatalf("expected Stressed, got %s", got.Mood)
	}
	if got.Score == 0 {
		t.Fatal("expected non-zero score")
	}
}

func TestSuggestExclamationsLiftHappyToEcstatic(t *testing.T) {
	got := Suggest("I got the internship, so happy!!!")
	if got.Mood != model.Ecstatic {
		t.Fatalf("expected Ecstatic, got %s", got.Mood)
	}
}

func TestSuggestFallsBackToOkay(t *testing.T) {
	for _, text := range []string{"", "   ", "the bus was on time"} {
		got := Suggest(text)
		if got.Mood != model.Okay || got.Score != 0 {
			t.Fatalf("Suggest(%q) = %+v, want Okay/0", text, got)
		}
	}
}
