package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
)

// mocks 测试中直接操作各 Mock Repository
type mocks struct {
	user           *mockUserRepo
	course         *mockCourseRepo
	review         *mockReviewRepo
	vote           *mockReviewVoteRepo
	courseSchedule *mockCourseScheduleRepo
	userSchedule   *mockUserScheduleRepo
}

func newMockRepository() (*repository.Repository, *mocks) {
	m := &mocks{
		user:           newMockUserRepo(),
		course:         newMockCourseRepo(),
		review:         newMockReviewRepo(),
		vote:           newMockReviewVoteRepo(),
		courseSchedule: newMockCourseScheduleRepo(),
		userSchedule:   newMockUserScheduleRepo(),
	}
	return &repository.Repository{
		User:           m.user,
		Course:         m.course,
		Review:         m.review,
		ReviewVote:     m.vote,
		CourseSchedule: m.courseSchedule,
		UserSchedule:   m.userSchedule,
	}, m
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(id string, role model.Role) *model.User {
	u := &model.User{UserID: id, Username: id, Email: id + "@edu.cn", Role: role}
	m.users[id] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return pkgerrors.ErrDuplicateKey
		}
	}
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	mu           sync.Mutex
	courses      map[string]*model.Course
	order        []string
	summaryCalls int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) add(id string) *model.Course {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &model.Course{CourseID: id, Code: "CODE-" + id, Name: "课程" + id, FacultyID: "faculty-1"}
	m.courses[id] = c
	m.order = append(m.order, id)
	return c
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.courses[id]
	return ok, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.Course, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, *m.courses[id])
	}
	return result, nil
}

// UpdateSummary 与 SQL 实现一致：仅当已有基线为空或不大于新基线时写入
func (m *mockCourseRepo) UpdateSummary(_ context.Context, courseID string, summary datatypes.JSON, generatedAt time.Time, reviewCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls++
	c, ok := m.courses[courseID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if c.AISummaryReviewCount != nil && *c.AISummaryReviewCount > reviewCount {
		return pkgerrors.ErrOptimisticLock
	}
	c.AISummary = summary
	t := generatedAt
	c.AISummaryGeneratedAt = &t
	n := reviewCount
	c.AISummaryReviewCount = &n
	return nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	mu        sync.Mutex
	reviews   map[string]*model.Review
	seq       int
	seeded    int
	createErr error
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string]*model.Review)}
}

// addApproved 为课程批量添加已通过评价（各自不同作者）
func (m *mockReviewRepo) addApproved(courseID string, n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		m.seeded++
		seq := m.seeded
		m.mu.Unlock()

		err := m.Create(context.Background(), &model.Review{
			UserID:   fmt.Sprintf("seed-%s-%d", courseID, seq),
			CourseID: courseID,
			Content:  fmt.Sprintf("评价 %d", seq),
			Rating:   4,
			Status:   model.ReviewApproved,
		})
		if err != nil {
			panic(fmt.Sprintf("预置评价失败: %v", err))
		}
	}
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	// 模拟部分唯一索引 (user_id, course_id) WHERE NOT uniqueness_exempt
	if !review.UniquenessExempt {
		for _, r := range m.reviews {
			if !r.UniquenessExempt && r.UserID == review.UserID && r.CourseID == review.CourseID {
				return pkgerrors.ErrDuplicateKey
			}
		}
	}
	m.seq++
	if review.ReviewID == "" {
		review.ReviewID = fmt.Sprintf("review-%d", m.seq)
	}
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	review.CreatedAt = base.Add(time.Duration(m.seq) * time.Minute)
	review.UpdatedAt = review.CreatedAt
	cp := *review
	m.reviews[review.ReviewID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.reviews[id]
	return ok, nil
}

func (m *mockReviewRepo) FindByUserAndCourse(_ context.Context, userID, courseID string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.CourseID == courseID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *review
	cp.User = nil
	m.reviews[review.ReviewID] = &cp
	return nil
}

func (m *mockReviewRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reviews, id)
	return nil
}

func (m *mockReviewRepo) approved(courseID string) []model.Review {
	var result []model.Review
	for _, r := range m.reviews {
		if r.CourseID == courseID && r.Status == model.ReviewApproved {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPinned != result[j].IsPinned {
			return result[i].IsPinned
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *mockReviewRepo) CountApproved(_ context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.approved(courseID))), nil
}

func (m *mockReviewRepo) ListApproved(_ context.Context, courseID string) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approved(courseID), nil
}

func (m *mockReviewRepo) ListApprovedPage(_ context.Context, courseID string, offset, limit int) ([]model.Review, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.approved(courseID)
	total := int64(len(all))
	if offset >= len(all) {
		return []model.Review{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockReviewRepo) ApprovedRatingStats(_ context.Context, courseID string) (repository.RatingStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.approved(courseID)
	if len(all) == 0 {
		return repository.RatingStats{}, nil
	}
	sum := 0
	for _, r := range all {
		sum += r.Rating
	}
	return repository.RatingStats{Count: int64(len(all)), Average: float64(sum) / float64(len(all))}, nil
}

// ── Mock ReviewVoteRepository ──

type mockReviewVoteRepo struct {
	mu          sync.Mutex
	votes       map[string]*model.ReviewVote // key: reviewID|userID
	seq         int
	createCalls int
	updateCalls int
	// beforeCreate 在插入前调用，可用于模拟并发请求抢先写入
	beforeCreate func(v *model.ReviewVote)
}

func newMockReviewVoteRepo() *mockReviewVoteRepo {
	return &mockReviewVoteRepo{votes: make(map[string]*model.ReviewVote)}
}

func voteKey(reviewID, userID string) string { return reviewID + "|" + userID }

func (m *mockReviewVoteRepo) put(v *model.ReviewVote) {
	m.seq++
	if v.ReviewVoteID == "" {
		v.ReviewVoteID = fmt.Sprintf("vote-%d", m.seq)
	}
	cp := *v
	m.votes[voteKey(v.ReviewID, v.UserID)] = &cp
}

func (m *mockReviewVoteRepo) GetByReviewAndUser(_ context.Context, reviewID, userID string) (*model.ReviewVote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.votes[voteKey(reviewID, userID)]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewVoteRepo) Create(_ context.Context, vote *model.ReviewVote) error {
	if m.beforeCreate != nil {
		hook := m.beforeCreate
		m.beforeCreate = nil
		hook(vote)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.votes[voteKey(vote.ReviewID, vote.UserID)]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	m.put(vote)
	return nil
}

func (m *mockReviewVoteRepo) UpdateType(_ context.Context, voteID string, voteType model.VoteType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	for _, v := range m.votes {
		if v.ReviewVoteID == voteID {
			v.VoteType = voteType
			return nil
		}
	}
	return nil
}

func (m *mockReviewVoteRepo) DeleteByReviewAndUser(_ context.Context, reviewID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := voteKey(reviewID, userID)
	if _, ok := m.votes[k]; !ok {
		return 0, nil
	}
	delete(m.votes, k)
	return 1, nil
}

func (m *mockReviewVoteRepo) CountByReview(ctx context.Context, reviewID string) (repository.VoteCounts, error) {
	counts, err := m.CountByReviews(ctx, []string{reviewID})
	return counts[reviewID], err
}

func (m *mockReviewVoteRepo) CountByReviews(_ context.Context, reviewIDs []string) (map[string]repository.VoteCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(reviewIDs))
	for _, id := range reviewIDs {
		want[id] = true
	}
	result := make(map[string]repository.VoteCounts)
	for _, v := range m.votes {
		if !want[v.ReviewID] {
			continue
		}
		c := result[v.ReviewID]
		if v.VoteType == model.VoteLike {
			c.Likes++
		} else {
			c.Dislikes++
		}
		result[v.ReviewID] = c
	}
	return result, nil
}

func (m *mockReviewVoteRepo) ListUserVotes(_ context.Context, userID string, reviewIDs []string) (map[string]model.VoteType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]model.VoteType)
	for _, id := range reviewIDs {
		if v, ok := m.votes[voteKey(id, userID)]; ok {
			result[id] = v.VoteType
		}
	}
	return result, nil
}

// ── Mock CourseScheduleRepository ──

type mockCourseScheduleRepo struct {
	rows  map[string]*model.CourseSchedule
	seq   int
	calls int // 所有方法的调用次数，用于断言“未访问存储”
	// skipExists 为 true 时 ExistsSlot 总是返回 false，模拟检查与插入之间的竞态
	skipExists bool
}

func newMockCourseScheduleRepo() *mockCourseScheduleRepo {
	return &mockCourseScheduleRepo{rows: make(map[string]*model.CourseSchedule)}
}

func (m *mockCourseScheduleRepo) Create(_ context.Context, s *model.CourseSchedule) error {
	m.calls++
	for _, r := range m.rows {
		if r.CourseID == s.CourseID && r.DayOfWeek == s.DayOfWeek && r.TimePeriod == s.TimePeriod {
			return pkgerrors.ErrDuplicateKey
		}
	}
	m.seq++
	if s.CourseScheduleID == "" {
		s.CourseScheduleID = fmt.Sprintf("cs-%d", m.seq)
	}
	cp := *s
	m.rows[s.CourseScheduleID] = &cp
	return nil
}

func (m *mockCourseScheduleRepo) GetByID(_ context.Context, id string) (*model.CourseSchedule, error) {
	m.calls++
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseScheduleRepo) ListByCourse(_ context.Context, courseID string) ([]model.CourseSchedule, error) {
	m.calls++
	var result []model.CourseSchedule
	for _, r := range m.rows {
		if r.CourseID == courseID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].TimePeriod < result[j].TimePeriod
	})
	return result, nil
}

func (m *mockCourseScheduleRepo) ExistsSlot(_ context.Context, courseID string, day, period int, excludeID string) (bool, error) {
	m.calls++
	if m.skipExists {
		return false, nil
	}
	for id, r := range m.rows {
		if id != excludeID && r.CourseID == courseID && r.DayOfWeek == day && r.TimePeriod == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCourseScheduleRepo) Update(_ context.Context, s *model.CourseSchedule) error {
	m.calls++
	cp := *s
	m.rows[s.CourseScheduleID] = &cp
	return nil
}

func (m *mockCourseScheduleRepo) Delete(_ context.Context, id string) error {
	m.calls++
	delete(m.rows, id)
	return nil
}

// ── Mock UserScheduleRepository ──

type mockUserScheduleRepo struct {
	rows  map[string]*model.UserSchedule
	seq   int
	calls int
}

func newMockUserScheduleRepo() *mockUserScheduleRepo {
	return &mockUserScheduleRepo{rows: make(map[string]*model.UserSchedule)}
}

func (m *mockUserScheduleRepo) Create(_ context.Context, s *model.UserSchedule) error {
	m.calls++
	for _, r := range m.rows {
		if r.UserID == s.UserID && r.DayOfWeek == s.DayOfWeek && r.TimePeriod == s.TimePeriod {
			return pkgerrors.ErrDuplicateKey
		}
	}
	m.seq++
	if s.UserScheduleID == "" {
		s.UserScheduleID = fmt.Sprintf("us-%d", m.seq)
	}
	cp := *s
	m.rows[s.UserScheduleID] = &cp
	return nil
}

func (m *mockUserScheduleRepo) GetByID(_ context.Context, id string) (*model.UserSchedule, error) {
	m.calls++
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserScheduleRepo) ListByUser(_ context.Context, userID string) ([]model.UserSchedule, error) {
	m.calls++
	var result []model.UserSchedule
	for _, r := range m.rows {
		if r.UserID == userID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].TimePeriod < result[j].TimePeriod
	})
	return result, nil
}

func (m *mockUserScheduleRepo) ExistsSlot(_ context.Context, userID string, day, period int, excludeID string) (bool, error) {
	m.calls++
	for id, r := range m.rows {
		if id != excludeID && r.UserID == userID && r.DayOfWeek == day && r.TimePeriod == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserScheduleRepo) Update(_ context.Context, s *model.UserSchedule) error {
	m.calls++
	cp := *s
	m.rows[s.UserScheduleID] = &cp
	return nil
}

func (m *mockUserScheduleRepo) Delete(_ context.Context, id string) error {
	m.calls++
	delete(m.rows, id)
	return nil
}

func (m *mockUserScheduleRepo) ReplaceByUser(ctx context.Context, userID string, list []model.UserSchedule) error {
	m.calls++
	for id, r := range m.rows {
		if r.UserID == userID {
			delete(m.rows, id)
		}
	}
	for i := range list {
		if err := m.Create(ctx, &list[i]); err != nil {
			return err
		}
	}
	return nil
}
