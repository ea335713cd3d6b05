// package formatter renders quizzes to JSON, CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/gosimple/slug"
)

// Format names an export format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported format.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name or common alias ("md", "text").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	if f == Markdown {
		return ".md"
	}
	return "." + string(f)
}

// Quiz is a generated quiz with the playlist it came from.
type Quiz struct {
	PlaylistID   string                `json:"playlist_id,omitempty"`
	PlaylistName string                `json:"playlist_name,omitempty"`
	Image        string                `json:"image,omitempty"`
	Tracks       []models.TrackRef     `json:"tracks,omitempty"`
	Questions    []models.QuizQuestion `json:"questions"`
}

// Title returns the playlist name or a generic heading.
func (q *Quiz) Title() string {
	if q.PlaylistName != "" {
		return q.PlaylistName + " Trivia"
	}
	return "MelodyMind Trivia"
}

// Render encodes quiz in format f. Markdown is rendered without a cover image.
func Render(f Format, quiz *Quiz) ([]byte, error) {
	switch f {
	case JSON:
		return ExportToJSON(quiz)
	case CSV:
		return ExportToCSV(quiz)
	case Markdown:
		return ExportToMarkdown(quiz, "")
	case Text:
		return ExportToText(quiz)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToJSON converts a Quiz to indented JSON.
func ExportToJSON(quiz *Quiz) ([]byte, error) {
	if quiz.Questions == nil {
		quiz.Questions = []models.QuizQuestion{}
	}
	return shared.MarshalJSON(quiz, true)
}

// ExportToCSV converts a Quiz to CSV with columns: Number, Difficulty, Question, A, B, C, D, Answer, Explanation
func ExportToCSV(quiz *Quiz) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Number", "Difficulty", "Question", "A", "B", "C", "D", "Answer", "Explanation"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, q := range quiz.Questions {
		record := []string{strconv.Itoa(i + 1), string(q.Difficulty), q.Question}
		for n := range models.OptionCount {
			opt := ""
			if n < len(q.Options) {
				opt = q.Options[n]
			}
			record = append(record, opt)
		}
		record = append(record, q.CorrectAnswer, q.Explanation)

		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Quiz to Markdown with optional cover image.
// Answers are folded into a details block under each question.
func ExportToMarkdown(quiz *Quiz, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", quiz.Title())

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Questions**: %d\n", len(quiz.Questions))
	if len(quiz.Tracks) > 0 {
		fmt.Fprintf(&buf, "**Tracks**: %d\n", len(quiz.Tracks))
	}
	buf.WriteString("\n")

	for i, q := range quiz.Questions {
		fmt.Fprintf(&buf, "## %d. %s\n\n", i+1, q.Question)
		fmt.Fprintf(&buf, "_Difficulty: %s_\n\n", q.Difficulty)
		for n, opt := range q.Options {
			fmt.Fprintf(&buf, "- %s. %s\n", optionLetter(n), opt)
		}
		buf.WriteString("\n<details><summary>Answer</summary>\n\n")
		fmt.Fprintf(&buf, "**%s**\n\n", q.CorrectAnswer)
		if q.Explanation != "" {
			fmt.Fprintf(&buf, "%s\n\n", q.Explanation)
		}
		buf.WriteString("</details>\n\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Quiz to plain text format
func ExportToText(quiz *Quiz) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", quiz.Title())
	fmt.Fprintf(&buf, "Questions: %d\n\n", len(quiz.Questions))

	for i, q := range quiz.Questions {
		fmt.Fprintf(&buf, "%d. [%s] %s\n", i+1, q.Difficulty, q.Question)
		for n, opt := range q.Options {
			fmt.Fprintf(&buf, "   %s) %s\n", optionLetter(n), opt)
		}
		fmt.Fprintf(&buf, "   Answer: %s\n\n", q.CorrectAnswer)
	}

	return buf.Bytes(), nil
}

func optionLetter(n int) string {
	return string(rune('A' + n))
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes a quiz to {dir}/README.md, with the playlist cover saved as
// {dir}/cover.jpg when quiz.Image is set. A failed cover download is reported to warn and skipped.
func WriteMarkdownExport(quiz *Quiz, outputDir string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = baseName(quiz)
	}
	if warn == nil {
		warn = io.Discard
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if quiz.Image != "" {
		imageData, err := DownloadImage(quiz.Image)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(quiz, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport renders quiz in format f to path.
//
// Defaults to quiz_{playlist id}{ext} as the filename.
func WriteExport(quiz *Quiz, f Format, path string) (string, error) {
	if path == "" {
		path = baseName(quiz) + f.Extension()
	}

	data, err := Render(f, quiz)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// baseName derives a file-safe default name from the playlist name, then its id.
func baseName(quiz *Quiz) string {
	for _, s := range []string{quiz.PlaylistName, quiz.PlaylistID} {
		if name := slug.Make(s); name != "" {
			return name + "-quiz"
		}
	}
	return "quiz"
}
