package admin

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/cuetable/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// GetAdminAccount retrieves an admin account by phone
func GetAdminAccount(db *sqlx.DB, phone string) (*models.AdminAccount, error) {
	var acc models.AdminAccount
	err := db.Get(&acc, `SELECT phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at FROM admin_accounts WHERE phone=$1`, phone)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// VerifyAdminToken checks if the provided token matches the stored hash
func VerifyAdminToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// IPAllowed reports whether ip may use the account. An empty list allows any address.
func IPAllowed(acc *models.AdminAccount, ip string) bool {
	if len(acc.AllowedIPs) == 0 {
		return true
	}
	for _, allowed := range acc.AllowedIPs {
		if allowed == ip {
			return true
		}
	}
	return false
}

// CreateAdminAccount upserts an admin account (used by cmd/seed-admin)
func CreateAdminAccount(db *sqlx.DB, phone, displayName, plainToken string, roles, allowedIPs []string) error {
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash token: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO admin_accounts (phone, display_name, token_hash, roles, allowed_ips, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (phone) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			allowed_ips = EXCLUDED.allowed_ips,
			updated_at = NOW()
	`, phone, displayName, string(hashedToken), pq.Array(roles), pq.Array(allowedIPs))

	return err
}

// LogAdminAction records an admin action in the audit log
func LogAdminAction(db *sqlx.DB, adminPhone, ip, route, action string, details map[string]interface{}, success bool) error {
	if db == nil {
		return nil
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("Failed to marshal admin audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO admin_audit (admin_phone, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, adminPhone, ip, route, action, detailsJSON, success)

	if err != nil {
		log.Printf("Failed to log admin action: %v", err)
	}

	return err
}

// GetAdminAuditLogs retrieves recent audit entries, optionally for one admin, newest first
func GetAdminAuditLogs(db *sqlx.DB, phone string, limit, offset int) ([]models.AdminAudit, int, error) {
	var rows []struct {
		models.AdminAudit
		TotalCount int `db:"total_count"`
	}
	query := `
		SELECT id, admin_phone, ip, route, action, details, success, created_at,
			COUNT(*) OVER() AS total_count
		FROM admin_audit
		WHERE ($1 = '' OR admin_phone = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := db.Select(&rows, query, phone, limit, offset); err != nil {
		return nil, 0, err
	}

	logs := make([]models.AdminAudit, len(rows))
	total := 0
	for i, r := range rows {
		logs[i] = r.AdminAudit
		total = r.TotalCount
	}
	return logs, total, nil
}

// ValidateAdminPhoneAndToken validates phone + token combination from the given client ip
func ValidateAdminPhoneAndToken(db *sqlx.DB, phone, token, ip string) (*models.AdminAccount, error) {
	acc, err := GetAdminAccount(db, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[ADMIN] No admin account found for phone: %s", phone)
			return nil, fmt.Errorf("admin account not found")
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyAdminToken(acc.TokenHash, token) {
		log.Printf("[ADMIN] Token verification failed for phone: %s", phone)
		return nil, fmt.Errorf("invalid token")
	}

	if !IPAllowed(acc, ip) {
		log.Printf("[ADMIN] %s not in allowed IPs for phone: %s", ip, phone)
		return nil, fmt.Errorf("ip not allowed")
	}

	return acc, nil
}
