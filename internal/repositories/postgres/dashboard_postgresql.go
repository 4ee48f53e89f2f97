package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/brainmetric/quiz-service/internal/models"
	"github.com/brainmetric/quiz-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// ===== TOTALS =====

func (r *dashboardRepository) GetTotalTests(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Test{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total tests: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) GetTotalQuestions(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total questions: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) GetTotalResults(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Result{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get total results: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) GetActiveUsers(ctx context.Context, tx *gorm.DB, days int) (int64, error) {
	var count int64
	startDate := time.Now().AddDate(0, 0, -days)

	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Result{}).
		Where("created_at >= ? AND user_id IS NOT NULL", startDate).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get active users: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) GetTelegramUsers(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Profile{}).
		Where("telegram_chat_id IS NOT NULL").
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get telegram users: %w", err)
	}
	return count, nil
}

// ===== METRICS =====

// GetAverageScoreRate is the mean of score/total_questions over all results, in percent
func (r *dashboardRepository) GetAverageScoreRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	var result struct {
		AvgRate float64
	}

	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Result{}).
		Where("total_questions > 0").
		Select("COALESCE(AVG(score::float / total_questions) * 100, 0) as avg_rate").
		Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("failed to get average score: %w", err)
	}

	return result.AvgRate, nil
}

func (r *dashboardRepository) GetInvitationCompletionRate(ctx context.Context, tx *gorm.DB) (float64, error) {
	db := r.getDB(tx)

	var total, completed int64
	if err := db.WithContext(ctx).
		Model(&models.Invitation{}).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count invitations: %w", err)
	}

	if total == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("is_completed = ?", true).
		Count(&completed).Error; err != nil {
		return 0, fmt.Errorf("failed to count completed invitations: %w", err)
	}

	return float64(completed) / float64(total) * 100, nil
}

// ===== TRENDS =====

func (r *dashboardRepository) GetActivityTrends(ctx context.Context, tx *gorm.DB, days int) ([]repositories.ActivityTrendData, error) {
	db := r.getDB(tx)
	if days <= 0 {
		days = 7
	}

	results := make([]repositories.ActivityTrendData, 0, days)
	now := time.Now().UTC()

	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i)
		startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		endOfDay := startOfDay.Add(24 * time.Hour)

		var count, botAnswers int64
		if err := db.WithContext(ctx).
			Model(&models.Result{}).
			Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
			Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count results: %w", err)
		}

		if err := db.WithContext(ctx).
			Model(&models.BotResult{}).
			Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
			Count(&botAnswers).Error; err != nil {
			return nil, fmt.Errorf("failed to count bot answers: %w", err)
		}

		var scoreResult struct {
			AvgScore float64
		}
		if err := db.WithContext(ctx).
			Model(&models.Result{}).
			Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
			Select("COALESCE(AVG(score), 0) as avg_score").
			Scan(&scoreResult).Error; err != nil {
			return nil, fmt.Errorf("failed to average scores: %w", err)
		}

		results = append(results, repositories.ActivityTrendData{
			Period:       startOfDay.Format("Mon"),
			Results:      count,
			BotAnswers:   botAnswers,
			AverageScore: scoreResult.AvgScore,
			Date:         startOfDay,
		})
	}

	return results, nil
}

// ===== DISTRIBUTION =====

func (r *dashboardRepository) GetQuestionDistribution(ctx context.Context, tx *gorm.DB) ([]repositories.QuestionDistributionData, error) {
	var rows []struct {
		Category string
		Count    int64
	}

	if err := r.getDB(tx).WithContext(ctx).
		Model(&models.Question{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Order("count DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get question distribution: %w", err)
	}

	var total int64
	for _, row := range rows {
		total += row.Count
	}

	distribution := make([]repositories.QuestionDistributionData, 0, len(rows))
	for _, row := range rows {
		percentage := float64(0)
		if total > 0 {
			percentage = float64(row.Count) / float64(total) * 100
		}
		distribution = append(distribution, repositories.QuestionDistributionData{
			Category:   row.Category,
			Count:      row.Count,
			Percentage: percentage,
		})
	}

	return distribution, nil
}

// GetCategoryAccuracy aggregates web answer records per question category
func (r *dashboardRepository) GetCategoryAccuracy(ctx context.Context, tx *gorm.DB) ([]repositories.CategoryAccuracyData, error) {
	var rows []struct {
		Category string
		Answered int64
		Correct  int64
	}

	if err := r.getDB(tx).WithContext(ctx).
		Table("answer_records").
		Select("questions.category as category, "+
			"COUNT(answer_records.id) as answered, "+
			"SUM(CASE WHEN answer_records.is_correct THEN 1 ELSE 0 END) as correct").
		Joins("JOIN questions ON answer_records.question_id = questions.id").
		Where("answer_records.selected_answer_id IS NOT NULL").
		Group("questions.category").
		Order("answered DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get category accuracy: %w", err)
	}

	accuracy := make([]repositories.CategoryAccuracyData, 0, len(rows))
	for _, row := range rows {
		rate := float64(0)
		if row.Answered > 0 {
			rate = float64(row.Correct) / float64(row.Answered) * 100
		}
		accuracy = append(accuracy, repositories.CategoryAccuracyData{
			Category:    row.Category,
			Answered:    row.Answered,
			Correct:     row.Correct,
			CorrectRate: rate,
		})
	}

	return accuracy, nil
}
