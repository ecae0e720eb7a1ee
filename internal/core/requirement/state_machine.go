package requirement

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"qa-platform/internal/model"
	"qa-platform/pkg/constants"
	pkgErrors "qa-platform/pkg/errors"
)

// Guard 转换守卫, 返回错误则转换被拒绝
type Guard func(ctx context.Context, tx *gorm.DB, req *model.Requirement) error

// SideEffect 转换时的业务字段更新, 与状态变更同事务
type SideEffect func(req *model.Requirement)

// Transition 单向生命周期的一步
type Transition struct {
	Action string
	From   int8
	To     int8
}

// 生命周期只进不退, 每个动作只有一个合法起点
var transitionTable = []Transition{
	{constants.RequirementActionApprove, constants.RequirementStatusDraft, constants.RequirementStatusApproved},
	{constants.RequirementActionStart, constants.RequirementStatusApproved, constants.RequirementStatusImplementing},
	{constants.RequirementActionBeginTesting, constants.RequirementStatusImplementing, constants.RequirementStatusTesting},
	{constants.RequirementActionDeploy, constants.RequirementStatusTesting, constants.RequirementStatusDeployed},
	{constants.RequirementActionVerify, constants.RequirementStatusDeployed, constants.RequirementStatusVerified},
}

// StateMachine 需求生命周期状态机
type StateMachine struct {
	db     *gorm.DB
	logger *zap.Logger

	// action → 转换定义
	transitions map[string]Transition
	// action → 守卫
	guards map[string]Guard
}

// NewStateMachine 创建需求状态机
func NewStateMachine(db *gorm.DB, logger *zap.Logger) *StateMachine {
	sm := &StateMachine{
		db:          db,
		logger:      logger,
		transitions: make(map[string]Transition),
		guards:      make(map[string]Guard),
	}
	for _, t := range transitionTable {
		sm.transitions[t.Action] = t
	}
	return sm
}

// SetGuard 注册动作守卫
func (sm *StateMachine) SetGuard(action string, guard Guard) {
	sm.guards[action] = guard
}

// Resolve 查询动作对应的转换, 供校验与展示
func Resolve(action string) (Transition, bool) {
	for _, t := range transitionTable {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// CanTrigger 当前状态下动作是否合法
func CanTrigger(status int8, action string) bool {
	t, ok := Resolve(action)
	return ok && t.From == status
}

// Trigger 执行生命周期动作
// 事务内重载最新状态并做乐观锁更新, 并发触发只有一个成功
func (sm *StateMachine) Trigger(ctx context.Context, req *model.Requirement, action string, effect SideEffect) error {
	t, ok := sm.transitions[action]
	if !ok {
		return pkgErrors.New(pkgErrors.CodeBadRequest, fmt.Sprintf("未知的生命周期动作: %s", action))
	}

	log := sm.logger.Sugar().With(zap.Int64("requirement_id", req.ID))

	err := sm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 重新加载最新状态
		if err := tx.First(req, req.ID).Error; err != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "加载需求失败", err)
		}
		from := req.Status

		// 2. 检查是否允许
		if from != t.From {
			return pkgErrors.Wrap(pkgErrors.CodeStateConflict,
				fmt.Sprintf("当前状态 %s 不允许执行 %s",
					constants.RequirementStatusToString(from), action),
				pkgErrors.ErrInvalidTransition)
		}

		// 3. 守卫检查
		if guard, ok := sm.guards[action]; ok {
			if err := guard(ctx, tx, req); err != nil {
				return err
			}
		}

		// 4. 业务字段更新
		if effect != nil {
			effect(req)
		}

		// 5. 乐观锁更新
		req.Status = t.To
		result := tx.Model(req).Where("id = ? AND status = ?", req.ID, from).Save(req)
		if result.Error != nil {
			return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新需求状态失败", result.Error)
		}
		if result.RowsAffected == 0 {
			return pkgErrors.ErrInvalidTransition
		}

		log.Infof("[Requirement SM: %d] 状态变更成功: %s -> %s",
			req.ID, constants.RequirementStatusToString(from), constants.RequirementStatusToString(t.To))
		return nil
	})
	return err
}
