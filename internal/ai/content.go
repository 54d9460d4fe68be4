package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/internal/excel"
	"github.com/example/wordquest/pkg/models"
)

// QuizSize is the number of questions in a generated quiz
const QuizSize = 3

const entryShape = `{"word": "...", "definition": "...", "root": "...", "origin": "...",
"synonyms": ["..."], "antonyms": ["..."], "example": "...",
"year_group": "Year 3|Year 4|Year 5|Year 6", "learning_point": "..."}`

// MimeXLSX is the content type of an Excel workbook
const MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var imageTypes = map[string]bool{"image/png": true, "image/jpeg": true, "image/webp": true}

// GenerateEntry writes a full dictionary entry for one word
func (g *Gateway) GenerateEntry(ctx context.Context, word string) (*models.WordDraft, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, apperr.Validation("enter a word to generate")
	}

	prompt := fmt.Sprintf(
		"Write a child-friendly dictionary entry for the English word %q.\n"+
			"Use British spelling. Give the root and origin when they are known, up to three "+
			"synonyms and antonyms, one example sentence, the most suitable year group and a short "+
			"spelling learning point (for example \"suffix -ous\").\n"+
			"Reply with this JSON object:\n%s",
		word, entryShape,
	)

	var draft models.WordDraft
	if err := g.completeJSON(ctx, "entry", prompt, &draft); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Definition) == "" {
		return nil, apperr.Validation("AI entry for %q has no definition", word)
	}
	if strings.TrimSpace(draft.Word) == "" {
		draft.Word = word
	}
	normalizeDraft(&draft, models.Year3)
	return &draft, nil
}

type draftList struct {
	LearningPoint string             `json:"learning_point"`
	Words         []models.WordDraft `json:"words"`
}

// GenerateThemedList proposes about five words for a year group that share one learning point
func (g *Gateway) GenerateThemedList(ctx context.Context, yearGroup models.YearGroup) ([]models.WordDraft, error) {
	if !yearGroup.Valid() {
		return nil, apperr.Validation("unknown year group %q", yearGroup)
	}

	prompt := fmt.Sprintf(
		"Pick one spelling learning point from the English national curriculum for %s "+
			"and list 5 words that practise it.\n"+
			"Reply with {\"learning_point\": \"...\", \"words\": [ ... ]} where every word is:\n%s",
		yearGroup, entryShape,
	)

	var list draftList
	if err := g.completeJSON(ctx, "themed", prompt, &list); err != nil {
		return nil, err
	}

	drafts := make([]models.WordDraft, 0, len(list.Words))
	for _, d := range list.Words {
		if strings.TrimSpace(d.Word) == "" {
			continue
		}
		if list.LearningPoint != "" {
			d.LearningPoint = list.LearningPoint
		}
		d.YearGroup = yearGroup
		normalizeDraft(&d, yearGroup)
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, apperr.Validation("AI service returned no words for %s", yearGroup)
	}
	return drafts, nil
}

type quizReply struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// GenerateQuiz writes exactly three questions about words, at least one of
// them a spelling question
func (g *Gateway) GenerateQuiz(ctx context.Context, words []models.Word) ([]models.QuizQuestion, error) {
	if len(words) == 0 {
		return nil, apperr.Validation("a quiz needs at least one word")
	}

	surface := make([]string, len(words))
	ids := make(map[string]string, len(words))
	for i, w := range words {
		surface[i] = w.Word
		ids[strings.ToLower(w.Word)] = w.ID
	}

	prompt := fmt.Sprintf(
		"Write a %d-question quiz for a primary-school child about these words: %s.\n"+
			"At least one question must have kind \"spelling\": ask to pick the correct spelling "+
			"from 4 options where the others are plausible misspellings. Other questions may have kind "+
			"\"meaning\" or \"usage\" and 4 options each.\n"+
			"Reply with {\"questions\": [{\"kind\": \"...\", \"word\": \"...\", \"question\": \"...\", "+
			"\"options\": [\"...\"], \"answer\": \"...\", \"explanation\": \"...\"}]}",
		QuizSize, strings.Join(surface, ", "),
	)

	var reply quizReply
	if err := g.completeJSON(ctx, "quiz", prompt, &reply); err != nil {
		return nil, err
	}
	if len(reply.Questions) != QuizSize {
		return nil, apperr.Validation("AI quiz has %d questions, expected %d", len(reply.Questions), QuizSize)
	}

	spelling := false
	for i := range reply.Questions {
		q := &reply.Questions[i]
		q.Kind = strings.ToLower(strings.TrimSpace(q.Kind))
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return nil, apperr.Validation("AI quiz question %d is missing its question or answer", i+1)
		}
		if q.Kind == models.QuizKindSpelling {
			spelling = true
		}
		q.WordID = ids[strings.ToLower(strings.TrimSpace(q.Word))]
	}
	if !spelling {
		return nil, apperr.Validation("AI quiz has no spelling question")
	}
	return reply.Questions, nil
}

// ExtractEntries finds word-bank entries in an uploaded document or picture
func (g *Gateway) ExtractEntries(ctx context.Context, data []byte, mimeType string) ([]models.WordDraft, error) {
	if len(data) == 0 {
		return nil, apperr.Validation("the uploaded file is empty")
	}
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))

	instructions := "Find the vocabulary words in this material and write an entry for each one.\n" +
		"Reply with {\"words\": [ ... ]} where every word is:\n" + entryShape

	var user interface{}
	switch {
	case mimeType == "text/plain" || mimeType == "text/csv" || mimeType == "text/markdown":
		user = instructions + "\n\nMaterial:\n" + string(data)
	case mimeType == MimeXLSX:
		text, err := excel.SheetText(data)
		if err != nil {
			return nil, apperr.Validation("could not read the spreadsheet: %v", err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, apperr.Validation("the spreadsheet is empty")
		}
		user = instructions + "\n\nMaterial:\n" + text
	case imageTypes[mimeType]:
		user = []contentPart{
			{Type: "text", Text: instructions},
			{Type: "image_url", ImageURL: &imageURL{
				URL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
			}},
		}
	default:
		return nil, apperr.Validation("unsupported file type %q", mimeType)
	}

	var list draftList
	if err := g.completeJSON(ctx, "extract", user, &list); err != nil {
		return nil, err
	}
	drafts := make([]models.WordDraft, 0, len(list.Words))
	for _, d := range list.Words {
		if strings.TrimSpace(d.Word) == "" {
			continue
		}
		normalizeDraft(&d, models.Year3)
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, apperr.Validation("no words were found in the file")
	}
	return drafts, nil
}

// normalizeDraft trims fields and maps the year group onto a known value,
// falling back to fallback when the model's answer is not recognised
func normalizeDraft(d *models.WordDraft, fallback models.YearGroup) {
	d.Word = strings.TrimSpace(d.Word)
	d.Definition = strings.TrimSpace(d.Definition)
	d.LearningPoint = strings.TrimSpace(d.LearningPoint)
	if yg, ok := models.ParseYearGroup(string(d.YearGroup)); ok {
		d.YearGroup = yg
	} else if fallback != "" {
		d.YearGroup = fallback
	}
	if d.Synonyms == nil {
		d.Synonyms = []string{}
	}
	if d.Antonyms == nil {
		d.Antonyms = []string{}
	}
}
