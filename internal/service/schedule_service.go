package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-eval/backend/internal/dto"
	"course-eval/backend/internal/model"
	"course-eval/backend/internal/repository"
	pkgerrors "course-eval/backend/pkg/errors"
)

// ── 周课表模块业务错误 ──

var (
	ErrSlotConflict = pkgerrors.New(pkgerrors.ErrConflict, "时间段已有课程安排")
	ErrICSInvalid   = pkgerrors.New(pkgerrors.ErrValidation, "ICS 文件无法解析")
)

// ═══════════════════════════════════════════════════════════
// 冲突检测器（课程课表与个人课表共用）
// ═══════════════════════════════════════════════════════════

// slotOwner 课表归属方：课程或用户
type slotOwner interface {
	exists(ctx context.Context, ownerID string) (bool, error)
	slotTaken(ctx context.Context, ownerID string, slot model.Slot, excludeID string) (bool, error)
	notFound() error
}

type conflictChecker struct {
	owner slotOwner
}

// hasConflict 纯查询：格子是否已有记录；越界在访问存储前返回校验错误
func (c conflictChecker) hasConflict(ctx context.Context, ownerID string, slot model.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, validationError(err)
	}
	return c.owner.slotTaken(ctx, ownerID, slot, "")
}

// checkConflicts 返回与已有记录冲突的格子
// 各格子独立检测，批内重复不互相比较；任一格子越界则整批失败
func (c conflictChecker) checkConflicts(ctx context.Context, ownerID string, slots []model.Slot) ([]model.Slot, error) {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, validationError(err)
		}
	}

	conflicts := make([]model.Slot, 0)
	for _, slot := range slots {
		taken, err := c.owner.slotTaken(ctx, ownerID, slot, "")
		if err != nil {
			return nil, err
		}
		if taken {
			conflicts = append(conflicts, slot)
		}
	}
	return conflicts, nil
}

// ensureFree 写入前校验：范围 → 归属方存在 → 格子空闲
func (c conflictChecker) ensureFree(ctx context.Context, ownerID string, slot model.Slot, excludeID string) error {
	if err := slot.Validate(); err != nil {
		return validationError(err)
	}
	ok, err := c.owner.exists(ctx, ownerID)
	if err != nil {
		return err
	}
	if !ok {
		return c.owner.notFound()
	}
	taken, err := c.owner.slotTaken(ctx, ownerID, slot, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlotConflict
	}
	return nil
}

// translateSlotWrite 并发插入命中唯一索引时视同冲突
func translateSlotWrite(err error) error {
	if errors.Is(err, pkgerrors.ErrDuplicateKey) {
		return ErrSlotConflict
	}
	return err
}

type courseOwner struct{ repo *repository.Repository }

func (o courseOwner) exists(ctx context.Context, id string) (bool, error) {
	return o.repo.Course.Exists(ctx, id)
}

func (o courseOwner) slotTaken(ctx context.Context, id string, slot model.Slot, excludeID string) (bool, error) {
	return o.repo.CourseSchedule.ExistsSlot(ctx, id, slot.DayOfWeek, slot.TimePeriod, excludeID)
}

func (o courseOwner) notFound() error { return ErrCourseNotFound }

type userOwner struct{ repo *repository.Repository }

func (o userOwner) exists(ctx context.Context, id string) (bool, error) {
	_, err := o.repo.User.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (o userOwner) slotTaken(ctx context.Context, id string, slot model.Slot, excludeID string) (bool, error) {
	return o.repo.UserSchedule.ExistsSlot(ctx, id, slot.DayOfWeek, slot.TimePeriod, excludeID)
}

func (o userOwner) notFound() error { return ErrUserNotFound }

// ═══════════════════════════════════════════════════════════
// ScheduleService
// ═══════════════════════════════════════════════════════════

// ScheduleService 周课表业务接口
type ScheduleService interface {
	// 课程课表（写操作仅管理员）
	HasCourseConflict(ctx context.Context, courseID string, slot model.Slot) (bool, error)
	CheckCourseConflicts(ctx context.Context, courseID string, slots []model.Slot) ([]model.Slot, error)
	ListCourseSchedules(ctx context.Context, courseID string) ([]dto.ScheduleResponse, error)
	AddCourseSchedule(ctx context.Context, courseID string, req *dto.CreateCourseScheduleRequest) (*dto.ScheduleResponse, error)
	UpdateCourseSchedule(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	DeleteCourseSchedule(ctx context.Context, id string) error

	// 个人课表（仅本人）
	HasUserConflict(ctx context.Context, userID string, slot model.Slot) (bool, error)
	CheckUserConflicts(ctx context.Context, userID string, slots []model.Slot) ([]model.Slot, error)
	ListUserSchedules(ctx context.Context, userID string) ([]dto.ScheduleResponse, error)
	AddUserSchedule(ctx context.Context, userID string, req *dto.CreateUserScheduleRequest) (*dto.ScheduleResponse, error)
	UpdateUserSchedule(ctx context.Context, userID, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error)
	DeleteUserSchedule(ctx context.Context, userID, id string) error
	ImportUserICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportICSResponse, error)
}

type scheduleService struct {
	repo   *repository.Repository
	course conflictChecker
	user   conflictChecker
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:   repo,
		course: conflictChecker{owner: courseOwner{repo: repo}},
		user:   conflictChecker{owner: userOwner{repo: repo}},
		logger: logger,
	}
}

// ────────────────────── 课程课表 ──────────────────────

func (s *scheduleService) HasCourseConflict(ctx context.Context, courseID string, slot model.Slot) (bool, error) {
	return s.course.hasConflict(ctx, courseID, slot)
}

func (s *scheduleService) CheckCourseConflicts(ctx context.Context, courseID string, slots []model.Slot) ([]model.Slot, error) {
	return s.course.checkConflicts(ctx, courseID, slots)
}

func (s *scheduleService) ListCourseSchedules(ctx context.Context, courseID string) ([]dto.ScheduleResponse, error) {
	list, err := s.repo.CourseSchedule.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("查询课程课表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ScheduleResponse, 0, len(list))
	for i := range list {
		result = append(result, courseScheduleResponse(&list[i]))
	}
	return result, nil
}

func (s *scheduleService) AddCourseSchedule(ctx context.Context, courseID string, req *dto.CreateCourseScheduleRequest) (*dto.ScheduleResponse, error) {
	slot := model.Slot{DayOfWeek: req.DayOfWeek, TimePeriod: req.TimePeriod}
	if err := s.course.ensureFree(ctx, courseID, slot, ""); err != nil {
		return nil, err
	}

	row := &model.CourseSchedule{
		CourseID:   courseID,
		DayOfWeek:  slot.DayOfWeek,
		TimePeriod: slot.TimePeriod,
		Location:   req.Location,
	}
	if err := s.repo.CourseSchedule.Create(ctx, row); err != nil {
		if err = translateSlotWrite(err); !errors.Is(err, ErrSlotConflict) {
			s.logger.Error("创建课程课表失败", zap.String("course_id", courseID), zap.Error(err))
		}
		return nil, err
	}

	resp := courseScheduleResponse(row)
	return &resp, nil
}

func (s *scheduleService) UpdateCourseSchedule(ctx context.Context, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	row, err := s.repo.CourseSchedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrScheduleNotFound)
	}

	slot := applySlotChange(model.Slot{DayOfWeek: row.DayOfWeek, TimePeriod: row.TimePeriod}, req)
	if err := s.course.ensureFree(ctx, row.CourseID, slot, row.CourseScheduleID); err != nil {
		return nil, err
	}

	row.DayOfWeek, row.TimePeriod = slot.DayOfWeek, slot.TimePeriod
	if req.Location != nil {
		row.Location = *req.Location
	}
	if err := s.repo.CourseSchedule.Update(ctx, row); err != nil {
		return nil, translateSlotWrite(err)
	}

	resp := courseScheduleResponse(row)
	return &resp, nil
}

func (s *scheduleService) DeleteCourseSchedule(ctx context.Context, id string) error {
	if _, err := s.repo.CourseSchedule.GetByID(ctx, id); err != nil {
		return notFoundAs(err, ErrScheduleNotFound)
	}
	return s.repo.CourseSchedule.Delete(ctx, id)
}

// ────────────────────── 个人课表 ──────────────────────

func (s *scheduleService) HasUserConflict(ctx context.Context, userID string, slot model.Slot) (bool, error) {
	return s.user.hasConflict(ctx, userID, slot)
}

func (s *scheduleService) CheckUserConflicts(ctx context.Context, userID string, slots []model.Slot) ([]model.Slot, error) {
	return s.user.checkConflicts(ctx, userID, slots)
}

func (s *scheduleService) ListUserSchedules(ctx context.Context, userID string) ([]dto.ScheduleResponse, error) {
	list, err := s.repo.UserSchedule.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询个人课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ScheduleResponse, 0, len(list))
	for i := range list {
		result = append(result, userScheduleResponse(&list[i]))
	}
	return result, nil
}

func (s *scheduleService) AddUserSchedule(ctx context.Context, userID string, req *dto.CreateUserScheduleRequest) (*dto.ScheduleResponse, error) {
	slot := model.Slot{DayOfWeek: req.DayOfWeek, TimePeriod: req.TimePeriod}
	if err := s.user.ensureFree(ctx, userID, slot, ""); err != nil {
		return nil, err
	}

	row := &model.UserSchedule{
		UserID:     userID,
		DayOfWeek:  slot.DayOfWeek,
		TimePeriod: slot.TimePeriod,
		CourseName: req.CourseName,
		Location:   req.Location,
	}
	if err := s.repo.UserSchedule.Create(ctx, row); err != nil {
		if err = translateSlotWrite(err); !errors.Is(err, ErrSlotConflict) {
			s.logger.Error("创建个人课表失败", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	resp := userScheduleResponse(row)
	return &resp, nil
}

// getOwnUserSchedule 他人的课表记录按不存在处理
func (s *scheduleService) getOwnUserSchedule(ctx context.Context, userID, id string) (*model.UserSchedule, error) {
	row, err := s.repo.UserSchedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrScheduleNotFound)
	}
	if row.UserID != userID {
		return nil, ErrScheduleNotFound
	}
	return row, nil
}

func (s *scheduleService) UpdateUserSchedule(ctx context.Context, userID, id string, req *dto.UpdateScheduleRequest) (*dto.ScheduleResponse, error) {
	row, err := s.getOwnUserSchedule(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	slot := applySlotChange(model.Slot{DayOfWeek: row.DayOfWeek, TimePeriod: row.TimePeriod}, req)
	if err := s.user.ensureFree(ctx, userID, slot, row.UserScheduleID); err != nil {
		return nil, err
	}

	row.DayOfWeek, row.TimePeriod = slot.DayOfWeek, slot.TimePeriod
	if req.CourseName != nil {
		row.CourseName = *req.CourseName
	}
	if req.Location != nil {
		row.Location = *req.Location
	}
	if err := s.repo.UserSchedule.Update(ctx, row); err != nil {
		return nil, translateSlotWrite(err)
	}

	resp := userScheduleResponse(row)
	return &resp, nil
}

func (s *scheduleService) DeleteUserSchedule(ctx context.Context, userID, id string) error {
	if _, err := s.getOwnUserSchedule(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.UserSchedule.Delete(ctx, id)
}

// ImportUserICS 以 ICS 内容全量替换个人课表
func (s *scheduleService) ImportUserICS(ctx context.Context, userID string, r io.Reader) (*dto.ImportICSResponse, error) {
	parsed, err := ParseICS(r, userID)
	if err != nil {
		s.logger.Warn("ICS 解析失败", zap.String("user_id", userID), zap.Error(err))
		return nil, ErrICSInvalid
	}

	if err := s.repo.UserSchedule.ReplaceByUser(ctx, userID, parsed.Schedules); err != nil {
		s.logger.Error("替换个人课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, translateSlotWrite(err)
	}

	s.logger.Info("ICS 导入完成",
		zap.String("user_id", userID),
		zap.Int("imported", len(parsed.Schedules)),
		zap.Int("skipped", parsed.Skipped),
	)

	resp := &dto.ImportICSResponse{
		ImportedCount: len(parsed.Schedules),
		SkippedCount:  parsed.Skipped,
		Schedules:     make([]dto.ScheduleResponse, 0, len(parsed.Schedules)),
	}
	for i := range parsed.Schedules {
		resp.Schedules = append(resp.Schedules, userScheduleResponse(&parsed.Schedules[i]))
	}
	return resp, nil
}

// ── 辅助函数 ──

func applySlotChange(slot model.Slot, req *dto.UpdateScheduleRequest) model.Slot {
	if req.DayOfWeek != nil {
		slot.DayOfWeek = *req.DayOfWeek
	}
	if req.TimePeriod != nil {
		slot.TimePeriod = *req.TimePeriod
	}
	return slot
}

func withPeriod(resp dto.ScheduleResponse) dto.ScheduleResponse {
	if p, ok := model.PeriodByIndex(resp.TimePeriod); ok {
		resp.PeriodName = p.Name
		resp.PeriodStart = p.Start
		resp.PeriodEnd = p.End
	}
	return resp
}

func courseScheduleResponse(row *model.CourseSchedule) dto.ScheduleResponse {
	return withPeriod(dto.ScheduleResponse{
		ID:         row.CourseScheduleID,
		OwnerID:    row.CourseID,
		DayOfWeek:  row.DayOfWeek,
		TimePeriod: row.TimePeriod,
		Location:   row.Location,
	})
}

func userScheduleResponse(row *model.UserSchedule) dto.ScheduleResponse {
	return withPeriod(dto.ScheduleResponse{
		ID:         row.UserScheduleID,
		OwnerID:    row.UserID,
		DayOfWeek:  row.DayOfWeek,
		TimePeriod: row.TimePeriod,
		CourseName: row.CourseName,
		Location:   row.Location,
	})
}

// SlotsFromRequest 将请求中的格子转为 model.Slot
func SlotsFromRequest(req []dto.SlotRequest) []model.Slot {
	slots := make([]model.Slot, 0, len(req))
	for _, r := range req {
		slots = append(slots, model.Slot{DayOfWeek: r.DayOfWeek, TimePeriod: r.TimePeriod})
	}
	return slots
}

// SlotsToResponse 将 model.Slot 转为响应格式
func SlotsToResponse(slots []model.Slot) []dto.SlotRequest {
	result := make([]dto.SlotRequest, 0, len(slots))
	for _, s := range slots {
		result = append(result, dto.SlotRequest{DayOfWeek: s.DayOfWeek, TimePeriod: s.TimePeriod})
	}
	return result
}
