package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
	"github.com/brainmetric/quiz-service/internal/validator"
)

const (
	ImportFormatCSV  = "csv"
	ImportFormatXLSX = "xlsx"

	importImagesDir   = "import_images"
	questionImagesDir = "questions"
	maxImageSide      = 1600
)

var ErrUnsupportedFormat = errors.New("unsupported import format")

// TestCache drops cached catalogue entries of a test
type TestCache interface {
	InvalidateTest(ctx context.Context, testID uint)
}

type importService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	cache     TestCache
}

func NewImportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, cache TestCache) ImportService {
	return &importService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		cache:     cache,
	}
}

// FormatFromPath picks the parser from a file extension
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ImportFormatCSV, nil
	case ".xlsx":
		return ImportFormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
}

// ===== PARSING =====

// ParseRows reads a semicolon separated CSV or the first sheet of an xlsx workbook.
// Rows that cannot be parsed are reported in the returned errors and left out.
func (s *importService) ParseRows(r io.Reader, format string) ([]models.ImportRow, []models.ImportRowError, error) {
	var table [][]string
	switch format {
	case ImportFormatCSV:
		reader := csv.NewReader(r)
		reader.Comma = ';'
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		records, err := reader.ReadAll()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}
		table = records
	case ImportFormatXLSX:
		book, err := excelize.OpenReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer book.Close()

		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook has no sheets")
		}
		if table, err = book.GetRows(sheets[0]); err != nil {
			return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if len(table) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	header := make(map[string]int, len(table[0]))
	for i, name := range table[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if name != "" {
			header[name] = i
		}
	}
	for _, required := range []string{"text", "correct_answer"} {
		if _, ok := header[required]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		rows    []models.ImportRow
		rowErrs []models.ImportRowError
	)
	for n, record := range table[1:] {
		line := n + 2
		if blankRecord(record) {
			continue
		}
		row, err := parseRow(header, record, line)
		if err != nil {
			rowErrs = append(rowErrs, models.ImportRowError{Line: line, Error: err.Error()})
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

func parseRow(header map[string]int, record []string, line int) (models.ImportRow, error) {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	intCell := func(name string, fallback int) (int, error) {
		v := cell(name)
		if v == "" {
			return fallback, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", name, v)
		}
		return n, nil
	}

	row := models.ImportRow{
		Line:          line,
		Text:          cell("text"),
		Category:      strings.ToLower(cell("category")),
		ImageFilename: cell("image_filename"),
		CorrectAnswer: cell("correct_answer"),
		Translations:  map[string]string{},
	}

	var err error
	if row.ExposureTime, err = intCell("exposure_time", 0); err != nil {
		return row, err
	}
	if row.AnswerTime, err = intCell("answer_time", models.DefaultAnswerTime); err != nil {
		return row, err
	}

	for i := 1; i <= 3; i++ {
		if wrong := cell(fmt.Sprintf("wrong_%d", i)); wrong != "" {
			row.WrongAnswers = append(row.WrongAnswers, wrong)
		}
	}

	for name := range header {
		for _, lang := range models.SupportedLanguages {
			if strings.HasSuffix(name, "_"+lang) {
				if v := cell(name); v != "" {
					row.Translations[name] = v
				}
			}
		}
	}

	return row, nil
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ===== IMPORT =====

func (s *importService) Import(ctx context.Context, rows []models.ImportRow, opts models.ImportOptions) (*models.ImportReport, error) {
	s.logger.Info("Importing questions", "test_title", opts.TestTitle, "rows", len(rows))

	if strings.TrimSpace(opts.TestTitle) == "" {
		return nil, ValidationErrors{{Field: "test_title", Message: "is required", Rule: "required"}}
	}

	test, created, err := s.getOrCreateTest(ctx, rows, opts)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{
		TestID:      test.ID,
		TestTitle:   test.Title,
		TestCreated: created,
	}

	order, err := s.repo.Question().NextOrder(ctx, s.db, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get next order: %w", err)
	}

	for i := range rows {
		row := &rows[i]
		if errs := s.validator.Business().ValidateImportRow(row); len(errs) > 0 {
			report.Errors = append(report.Errors, models.ImportRowError{Line: row.Line, Error: errs.Error()})
			report.Skipped++
			continue
		}

		question := buildQuestion(test.ID, order, row)

		if row.ImageFilename != "" {
			image, err := s.storeImage(opts.MediaRoot, row.ImageFilename)
			if err != nil {
				s.logger.Warn("Question image not imported", "line", row.Line, "image", row.ImageFilename, "error", err)
				report.MissingImages = append(report.MissingImages, row.ImageFilename)
			} else {
				question.Image = &image
			}
		}

		if err := s.repo.Question().Create(ctx, s.db, question); err != nil {
			report.Errors = append(report.Errors, models.ImportRowError{Line: row.Line, Error: err.Error()})
			report.Skipped++
			continue
		}

		order++
		report.Created++
		s.logger.Debug("Question imported", "line", row.Line, "question_id", question.ID, "category", question.Category)
	}

	if s.cache != nil {
		s.cache.InvalidateTest(ctx, test.ID)
	}

	s.logger.Info("Import finished",
		"test_id", test.ID,
		"created", report.Created,
		"skipped", report.Skipped,
		"missing_images", len(report.MissingImages))
	return report, nil
}

func (s *importService) getOrCreateTest(ctx context.Context, rows []models.ImportRow, opts models.ImportOptions) (*models.Test, bool, error) {
	test, err := s.repo.Test().GetByTitle(ctx, s.db, opts.TestTitle)
	if err == nil {
		return test, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to get test: %w", err)
	}

	categories := make([]string, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, r.Category)
	}

	audience := opts.Audience
	if audience == "" {
		audience = models.AudienceGeneral
	}
	count := opts.QuestionsCount
	if count <= 0 {
		count = models.DefaultQuestionsCount
	}

	test = &models.Test{
		Title:          opts.TestTitle,
		Description:    opts.Description,
		QuestionsCount: count,
		TimeLimit:      opts.TimeLimit,
		Audience:       audience,
		Kind:           InferTestKind(opts.TestTitle, categories),
	}
	if err := s.validator.Validate(test); err != nil {
		return nil, false, err
	}
	if err := s.repo.Test().Create(ctx, s.db, test); err != nil {
		return nil, false, fmt.Errorf("failed to create test: %w", err)
	}

	s.logger.Info("Test created for import", "test_id", test.ID, "kind", test.Kind)
	return test, true, nil
}

func buildQuestion(testID uint, order int, row *models.ImportRow) *models.Question {
	category := models.Category(row.Category)
	if category == "" {
		category = models.CategoryLogic
	}
	answerTime := row.AnswerTime
	if answerTime == 0 {
		answerTime = models.DefaultAnswerTime
	}

	question := &models.Question{
		TestID:       testID,
		Text:         row.Text,
		Category:     category,
		Order:        order,
		ExposureTime: row.ExposureTime,
		AnswerTime:   answerTime,
		Translations: translationsFor(row.Translations, "text", "text"),
	}

	question.Answers = append(question.Answers, models.Answer{
		Text:         row.CorrectAnswer,
		IsCorrect:    true,
		Translations: translationsFor(row.Translations, "correct_answer", "text"),
	})
	for i, wrong := range row.WrongAnswers {
		question.Answers = append(question.Answers, models.Answer{
			Text:         wrong,
			Translations: translationsFor(row.Translations, fmt.Sprintf("wrong_%d", i+1), "text"),
		})
	}

	return question
}

// translationsFor picks "<column>_<lang>" cells and keys them "<field>_<lang>"
func translationsFor(cells map[string]string, column, field string) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for _, lang := range models.SupportedLanguages {
		if v, ok := cells[column+"_"+lang]; ok {
			out[field+"_"+lang] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// storeImage moves an image from the import folder into the served question
// folder, downscaling large pictures. It returns the path relative to mediaRoot.
func (s *importService) storeImage(mediaRoot, filename string) (string, error) {
	name := filepath.Base(filename)
	src := filepath.Join(mediaRoot, importImagesDir, name)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dstDir := filepath.Join(mediaRoot, questionImagesDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dstDir, name)

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		// not a raster format imaging knows (svg, webp), keep the bytes as they are
		if copyErr := copyFile(src, dst); copyErr != nil {
			return "", copyErr
		}
		return questionImagesDir + "/" + name, nil
	}

	b := img.Bounds()
	if b.Dx() > maxImageSide || b.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}
	if err := imaging.Save(img, dst); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return questionImagesDir + "/" + name, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
