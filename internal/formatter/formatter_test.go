package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	th "github.com/desertthunder/melodymind/internal/testing"
)

func sampleQuiz() *Quiz {
	return &Quiz{
		PlaylistID:   "pl123",
		PlaylistName: "Road Trip",
		Tracks:       []models.TrackRef{{Title: "Hey Jude", Artist: "The Beatles"}},
		Questions: []models.QuizQuestion{
			{
				Question:      "What should Jude not do?",
				Options:       []string{"Make it bad", "Make it better", "Let it be", "Go, \"away\""},
				CorrectAnswer: "Make it bad",
				Explanation:   "The opening line.",
				Difficulty:    models.Normal,
			},
			{
				Question:      "Which song contains these lyrics?",
				Options:       []string{"Imagine by John Lennon", "Hey Jude by The Beatles", "Generic Song by Random Artist", "Bohemian Rhapsody by Queen"},
				CorrectAnswer: "Hey Jude by The Beatles",
				Difficulty:    models.Hard,
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: JSON},
		{in: "JSON", want: JSON},
		{in: "csv", want: CSV},
		{in: "md", want: Markdown},
		{in: "markdown", want: Markdown},
		{in: "text", want: Text},
		{in: "txt", want: Text},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}

	if Markdown.Extension() != ".md" || CSV.Extension() != ".csv" {
		t.Error("unexpected extensions")
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleQuiz())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("CSV did not parse: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header plus 2 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "Number,Difficulty,Question,A,B,C,D,Answer,Explanation" {
			t.Errorf("CSV missing headers, got: %v", records[0])
		}
		if records[1][6] != `Go, "away"` {
			t.Errorf("expected quoted option to survive, got %q", records[1][6])
		}
		if records[2][1] != "Hard" || records[2][7] != "Hey Jude by The Beatles" {
			t.Errorf("unexpected hard row %v", records[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleQuiz(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			output := string(data)

			for _, want := range []string{
				"# Road Trip Trivia",
				"**Questions**: 2",
				"## 1. What should Jude not do?",
				"- B. Make it better",
				"_Difficulty: Hard_",
				"<details><summary>Answer</summary>",
				"**Hey Jude by The Beatles**",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q", want)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not include cover without filename")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ExportToMarkdown(sampleQuiz(), "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(&Quiz{Questions: sampleQuiz().Questions})
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "MelodyMind Trivia\n") {
			t.Errorf("expected generic title, got %q", output[:30])
		}
		if !strings.Contains(output, "2. [Hard] Which song contains these lyrics?") {
			t.Error("Text missing numbered hard question")
		}
		if !strings.Contains(output, "   C) Generic Song by Random Artist") {
			t.Error("Text missing lettered option")
		}
		if !strings.Contains(output, "   Answer: Make it bad") {
			t.Error("Text missing answer")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(&Quiz{})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"questions": []`) {
			t.Errorf("expected empty questions array, got %s", data)
		}

		data, _ = ExportToJSON(sampleQuiz())
		var decoded struct {
			Questions []map[string]any `json:"questions"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatal(err)
		}
		if decoded.Questions[0]["correct_answer"] != "Make it bad" {
			t.Errorf("expected snake_case fields, got %v", decoded.Questions[0])
		}
	})

	t.Run("Render unknown format", func(t *testing.T) {
		if _, err := Render(Format("yaml"), sampleQuiz()); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		if _, err := DownloadImage(server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		quiz *Quiz
		want string
	}{
		{&Quiz{PlaylistID: "pl1", PlaylistName: "Road Trip!"}, "road-trip-quiz"},
		{&Quiz{PlaylistID: "37i9dQZF"}, "37i9dqzf-quiz"},
		{&Quiz{}, "quiz"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := baseName(tt.quiz); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteExport(sampleQuiz(), CSV, "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if path != "road-trip-quiz.csv" {
				t.Errorf("expected default path, got %s", path)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.txt")
			if _, err := WriteExport(sampleQuiz(), Text, path); err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if content := th.MustReadFile(t, path); !strings.Contains(content, "Road Trip Trivia") {
				t.Errorf("unexpected content %q", content)
			}
		})

		t.Run("UnwritablePath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing", "out.json")
			if _, err := WriteExport(sampleQuiz(), JSON, path); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/cover.jpg" {
				w.Write([]byte("jpeg-bytes"))
				return
			}
			http.NotFound(w, r)
		}))
		defer server.Close()

		t.Run("WithCoverImage", func(t *testing.T) {
			quiz := sampleQuiz()
			quiz.Image = server.URL + "/cover.jpg"
			dir := filepath.Join(t.TempDir(), "quiz")

			result, err := WriteMarkdownExport(quiz, dir, nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			th.AssertDirExists(t, result.Directory)
			th.AssertFileExists(t, result.CoverImage)
			if len(result.Files) != 2 {
				t.Errorf("expected cover and README, got %v", result.Files)
			}
			content := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(content, "![Cover](cover.jpg)") {
				t.Error("README missing cover reference")
			}
		})

		t.Run("WithBrokenCover", func(t *testing.T) {
			quiz := sampleQuiz()
			quiz.Image = server.URL + "/missing.jpg"
			var warnings strings.Builder

			result, err := WriteMarkdownExport(quiz, filepath.Join(t.TempDir(), "quiz"), &warnings)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.CoverImage != "" || len(result.Files) != 1 {
				t.Errorf("expected README only, got %+v", result)
			}
			if !strings.Contains(warnings.String(), "failed to download cover image") {
				t.Errorf("expected warning, got %q", warnings.String())
			}
		})

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(sampleQuiz(), "", nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Directory != "road-trip-quiz" {
				t.Errorf("expected playlist name directory, got %s", result.Directory)
			}
			if _, err := os.Stat(filepath.Join("road-trip-quiz", "README.md")); err != nil {
				t.Errorf("README missing: %v", err)
			}
		})
	})
}
