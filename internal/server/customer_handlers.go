package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/branchd-dev/adminconsole/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// keeps (page-1)*limit well inside int range
	maxPage = math.MaxInt32 / maxPageSize
)

// CustomerRequest is the create and replace payload
type CustomerRequest struct {
	Name   string  `json:"name" binding:"required,max=200"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Phone  *string `json:"phone" binding:"omitempty,max=50"`
	Status string  `json:"status" binding:"omitempty,customer_status"`
	Gender *string `json:"gender" binding:"omitempty,gender"`
}

// UnmarshalJSON normalizes the payload as it is bound, so blank optional
// fields reach validation as nil
func (r *CustomerRequest) UnmarshalJSON(data []byte) error {
	type plain CustomerRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = CustomerRequest(p)
	r.normalize()
	return nil
}

// normalize trims every field and turns blank optional fields into nil
func (r *CustomerRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Status = strings.TrimSpace(r.Status)
	r.Email = blankToNil(r.Email)
	r.Phone = blankToNil(r.Phone)
	r.Gender = blankToNil(r.Gender)
}

// apply copies the request onto c; an omitted status becomes active
func (r *CustomerRequest) apply(c *models.Customer) {
	c.Name = strings.TrimSpace(r.Name)
	c.Email = blankToNil(r.Email)
	c.Phone = blankToNil(r.Phone)
	c.Gender = blankToNil(r.Gender)
	c.Status = r.Status
	if c.Status == "" {
		c.Status = models.StatusActive
	}
}

// CustomerListResponse is a page of customers
type CustomerListResponse struct {
	Items []models.Customer `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// patchRules are the validation tags applied to each patchable field;
// nullable fields accept JSON null
var patchRules = map[string]struct {
	tag      string
	nullable bool
}{
	"name":   {tag: "required,max=200"},
	"email":  {tag: "omitempty,email", nullable: true},
	"phone":  {tag: "omitempty,max=50", nullable: true},
	"status": {tag: "required,customer_status"},
	"gender": {tag: "omitempty,gender", nullable: true},
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Server) listCustomers(c *gin.Context) {
	page, limit := pagination(c)

	query := s.db.Model(&models.Customer{})
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count customers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	customers := []models.Customer{}
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&customers).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list customers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, CustomerListResponse{
		Items: customers,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// pagination reads page and limit, falling back to defaults on bad input
func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// findCustomer loads the customer named by the :id param, writing the error response itself
func (s *Server) findCustomer(c *gin.Context) (*models.Customer, bool) {
	var customer models.Customer
	if err := models.FindByID(s.db, c.Param("id"), &customer); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return &customer, true
}

func (s *Server) getCustomer(c *gin.Context) {
	customer, ok := s.findCustomer(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (s *Server) createCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var customer models.Customer
	req.apply(&customer)

	if err := s.db.Create(&customer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	sessionData, _ := sessionFrom(c)
	s.logger.Info().
		Str("customer_id", customer.ID).
		Str("created_by", sessionData.UserID).
		Msg("Customer created")

	c.JSON(http.StatusCreated, customer)
}

func (s *Server) updateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer, ok := s.findCustomer(c)
	if !ok {
		return
	}
	req.apply(customer)

	// Select("*") writes nil pointers as NULL
	if err := s.db.Model(customer).Select("*").Omit("id", "created_at").Updates(customer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (s *Server) patchCustomer(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]any, len(fields))
	for name, value := range fields {
		rule, known := patchRules[name]
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown field: " + name})
			return
		}

		if value == nil {
			if !rule.nullable {
				c.JSON(http.StatusBadRequest, gin.H{"error": name + " cannot be null"})
				return
			}
			updates[name] = nil
			continue
		}

		str, isString := value.(string)
		if !isString {
			c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a string"})
			return
		}
		str = strings.TrimSpace(str)
		if err := s.validator.Var(str, rule.tag); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + ": " + err.Error()})
			return
		}
		if str == "" && rule.nullable {
			updates[name] = nil
			continue
		}
		updates[name] = str
	}

	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	customer, ok := s.findCustomer(c)
	if !ok {
		return
	}

	if err := s.db.Model(customer).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to patch customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	// Reload so the response reflects NULLed columns
	if err := models.FindByID(s.db, customer.ID, customer); err != nil {
		s.logger.Error().Err(err).Msg("Failed to reload customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (s *Server) deleteCustomer(c *gin.Context) {
	customer, ok := s.findCustomer(c)
	if !ok {
		return
	}

	if err := s.db.Delete(customer).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete customer")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	sessionData, _ := sessionFrom(c)
	s.logger.Info().
		Str("customer_id", customer.ID).
		Str("deleted_by", sessionData.UserID).
		Msg("Customer deleted")

	c.Status(http.StatusNoContent)
}
