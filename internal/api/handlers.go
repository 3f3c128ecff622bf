// Package api exposes the award service over HTTP with gin.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/extrapoints/internal/export"
	"github.com/mmynk/extrapoints/internal/ledger"
	"github.com/mmynk/extrapoints/internal/models"
	"github.com/mmynk/extrapoints/internal/service"
)

// AwardService is the part of service.AwardService the handlers call.
type AwardService interface {
	AwardPoints(ctx context.Context, req service.AwardRequest) (*service.Outcome, error)
	ReviseAward(ctx context.Context, req service.RevisionRequest) (*service.Outcome, error)
	RemoveAward(ctx context.Context, studentID, awardID int64) (*service.Outcome, error)
	ListStudentsWithTotals(ctx context.Context) ([]models.StudentTotal, error)
	GetStudentDetail(ctx context.Context, studentID int64) (*models.StudentDetail, error)
}

// Handler serves the extra points routes.
type Handler struct {
	svc AwardService
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc AwardService) *Handler {
	return &Handler{svc: svc}
}

// AwardPointsRequest is the request body for granting points.
type AwardPointsRequest struct {
	TeacherID int64  `json:"teacherId" binding:"required"`
	TypeID    int64  `json:"typeId" binding:"required"`
	Comments  string `json:"comments"`
}

// ReviseAwardRequest is the request body for revising awards. Without
// awardId every award of the student is revised.
type ReviseAwardRequest struct {
	TeacherID int64  `json:"teacherId" binding:"required"`
	TypeID    int64  `json:"typeId" binding:"required"`
	Comments  string `json:"comments"`
	Points    *int64 `json:"points"`
	AwardID   int64  `json:"awardId"`
}

// ListTotals returns every student with their total.
func (h *Handler) ListTotals(c *gin.Context) {
	totals, err := h.svc.ListStudentsWithTotals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

// GetDetail returns one student with their total and latest award.
func (h *Handler) GetDetail(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}

	detail, err := h.svc.GetStudentDetail(c.Request.Context(), studentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Award grants points to a student.
func (h *Handler) Award(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}

	var req AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	out, err := h.svc.AwardPoints(c.Request.Context(), service.AwardRequest{
		StudentID: studentID,
		TeacherID: req.TeacherID,
		TypeID:    req.TypeID,
		Comments:  req.Comments,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Extra points added successfully",
		"total_extra_points": out.Total,
		"award_id":           out.AwardID,
	})
}

// Revise rewrites one or all of a student's awards.
func (h *Handler) Revise(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}

	var req ReviseAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	out, err := h.svc.ReviseAward(c.Request.Context(), service.RevisionRequest{
		StudentID: studentID,
		TeacherID: req.TeacherID,
		TypeID:    req.TypeID,
		Comments:  req.Comments,
		Value:     req.Points,
		AwardID:   req.AwardID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Extra points updated successfully",
		"total_extra_points": out.Total,
		"revised":            out.Revised,
	})
}

// Remove deletes one award of a student.
func (h *Handler) Remove(c *gin.Context) {
	studentID, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	awardID, ok := pathID(c, "extraPointsId")
	if !ok {
		return
	}

	out, err := h.svc.RemoveAward(c.Request.Context(), studentID, awardID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            "Extra points deleted successfully",
		"total_extra_points": out.Total,
	})
}

// ExportTotals streams the totals as an xlsx workbook.
func (h *Handler) ExportTotals(c *gin.Context) {
	totals, err := h.svc.ListStudentsWithTotals(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTotals(&buf, totals); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=extra-points.xlsx")
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// pathID parses a positive id from the path. Zero is rejected like a zero
// teacherId or typeId in a request body.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", name)})
		return 0, false
	}
	return id, true
}

// respondError maps the ledger error taxonomy to a status code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var agg *ledger.AggregateError
	if errors.As(err, &agg) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          "Extra points were recorded but the total could not be computed",
			"award_recorded": true,
		})
		return
	}

	if entity, ok := ledger.NotFoundEntity(err); ok {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage(entity)})
		return
	}

	switch {
	case errors.Is(err, ledger.ErrStoreWrite):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error writing to the database"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching data from the database"})
	}
}

func notFoundMessage(entity ledger.Entity) string {
	switch entity {
	case ledger.EntityClassAssignment:
		return "Student's class not found"
	case ledger.EntityAward:
		return "Extra points not found"
	case ledger.EntityStudent:
		return "Student not found"
	case ledger.EntityTeacher:
		return "Teacher not found"
	case ledger.EntityPointType:
		return "Extra points type not found"
	default:
		return "Not found"
	}
}
