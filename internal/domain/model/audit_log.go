package model

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionRecalculateOrder  AuditAction = "RECALCULATE_ORDER"
	AuditActionRecordPayment     AuditAction = "RECORD_PAYMENT"
	AuditActionGrantPermission   AuditAction = "GRANT_PERMISSION"
	AuditActionRevokePermission  AuditAction = "REVOKE_PERMISSION"
	AuditActionUpdateUser        AuditAction = "UPDATE_USER"
)

type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
)

// 管理操作の記録。before/afterはJSON文字列
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index:idx_audit_resource,priority:1" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index:idx_audit_resource,priority:2" json:"resource_id"`
	BeforeJSON   string            `gorm:"type:text" json:"before_json,omitempty"`
	AfterJSON    string            `gorm:"type:text" json:"after_json,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at"`
}

// before/afterがnilなら列は空のまま
func NewAuditLog(actor int64, action AuditAction, kind AuditResourceType, id int64, before any, after any) AuditLog {
	return AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: kind,
		ResourceID:   id,
		BeforeJSON:   snapshotJSON(before),
		AfterJSON:    snapshotJSON(after),
		CreatedAt:    time.Now(),
	}
}

func snapshotJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
