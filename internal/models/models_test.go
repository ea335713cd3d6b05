package models

import "testing"

func TestQuizQuestionValidate(t *testing.T) {
	tc := []struct {
		name    string
		q       QuizQuestion
		wantErr bool
	}{
		{
			name: "valid",
			q: QuizQuestion{
				Question:      "Which song contains these lyrics?",
				Options:       []string{"A by X", "B by Y", "C by Z", "D by W"},
				CorrectAnswer: "C by Z",
			},
		},
		{
			name: "three options",
			q: QuizQuestion{
				Question:      "q",
				Options:       []string{"a", "b", "c"},
				CorrectAnswer: "a",
			},
			wantErr: true,
		},
		{
			name: "answer not among options",
			q: QuizQuestion{
				Question:      "q",
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: "e",
			},
			wantErr: true,
		},
		{
			name: "empty question",
			q: QuizQuestion{
				Options:       []string{"a", "b", "c", "d"},
				CorrectAnswer: "a",
			},
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChunkFilter(t *testing.T) {
	c := LyricChunk{SongTitle: "Hey Jude", Artist: "The Beatles"}

	tc := []struct {
		name   string
		filter ChunkFilter
		want   bool
	}{
		{"empty", ChunkFilter{}, true},
		{"same song", ChunkFilter{SongTitle: "Hey Jude", Artist: "The Beatles"}, true},
		{"other artist", ChunkFilter{SongTitle: "Hey Jude", Artist: "Wilson Pickett"}, false},
		{"excluded", ChunkFilter{ExcludeSongTitle: "Hey Jude"}, false},
		{"excluded other", ChunkFilter{ExcludeSongTitle: "Let It Be"}, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(c); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferRecordValidate(t *testing.T) {
	r := &TransferRecord{SessionID: "s", PlaylistName: "p", Status: StatusCompleted, TracksTotal: 2, TracksMatched: 1, TracksSkipped: 1}
	if err := r.Validate(); err != nil {
		t.Errorf("expected valid record, got %v", err)
	}

	r.TracksSkipped = 2
	if err := r.Validate(); err == nil {
		t.Error("expected error when counts exceed total")
	}

	r = &TransferRecord{SessionID: "s", PlaylistName: "p", Status: StatusIdle}
	if err := r.Validate(); err == nil {
		t.Error("idle is not a persistable status")
	}
}

func TestStatusKind(t *testing.T) {
	if StatusProcessing.Terminal() || StatusIdle.Terminal() {
		t.Error("processing and idle are not terminal")
	}
	if !StatusCompleted.Terminal() || !StatusError.Terminal() {
		t.Error("completed and error are terminal")
	}
	if got := IdleStatus(); got.Status != StatusIdle || got.ErrorMessage() != "" {
		t.Errorf("unexpected idle status %+v", got)
	}
}
