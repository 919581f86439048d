package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	apperrors "sudooom.im.campus/shared/errors"
)

// Request GraphQL 请求体
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Response 返回 data 或 errors 之一
type Response struct {
	Data   interface{} `json:"data,omitempty"`
	Errors []Error     `json:"errors,omitempty"`
}

// Error 对外错误载荷
type Error struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// Handler GraphQL HTTP 入口
type Handler struct {
	schema  graphql.Schema
	timeout time.Duration
	logger  *slog.Logger
}

// NewHandler 创建 GraphQL 处理器，timeout 为单个请求的执行上限
func NewHandler(svc MessagingService, timeout time.Duration) (*Handler, error) {
	schema, err := NewSchema(svc)
	if err != nil {
		return nil, err
	}
	return &Handler{
		schema:  schema,
		timeout: timeout,
		logger:  slog.Default(),
	}, nil
}

// Serve 处理 POST（JSON 请求体）与 GET（查询参数）请求
func (h *Handler) Serve(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	if c.Request.Method == http.MethodGet && isMutation(req) {
		c.JSON(http.StatusMethodNotAllowed, errorResponse("mutations must use POST", "VALIDATION_ERROR"))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	c.JSON(http.StatusOK, toResponse(result))
}

func (h *Handler) bind(c *gin.Context) (*Request, bool) {
	var req Request

	switch c.Request.Method {
	case http.MethodGet:
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if raw := c.Query("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				c.JSON(http.StatusBadRequest, errorResponse("variables must be a JSON object", "VALIDATION_ERROR"))
				return nil, false
			}
		}
	default:
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Debug("malformed graphql request", "error", err)
			c.JSON(http.StatusBadRequest, errorResponse("request body must be a JSON object with a query", "VALIDATION_ERROR"))
			return nil, false
		}
	}

	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, errorResponse("query must not be empty", "VALIDATION_ERROR"))
		return nil, false
	}
	return &req, true
}

// isMutation 判断将要执行的操作是否为 mutation，解析失败时交给执行阶段报告
func isMutation(req *Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName != "" && (op.Name == nil || op.Name.Value != req.OperationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}

// toResponse 有错误时只返回 errors，每条错误都带 extensions.code
func toResponse(result *graphql.Result) Response {
	if !result.HasErrors() {
		return Response{Data: result.Data}
	}

	errs := make([]Error, 0, len(result.Errors))
	for _, fe := range result.Errors {
		errs = append(errs, toError(fe))
	}
	return Response{Errors: errs}
}

func toError(fe gqlerrors.FormattedError) Error {
	if fe.Extensions != nil {
		return Error{Message: fe.Message, Path: fe.Path, Extensions: fe.Extensions}
	}
	if len(fe.Path) > 0 {
		// 执行阶段未经 normalize 的错误（如非空字段返回 null），不透出细节
		internalErr := fromAppError(apperrors.ErrServerError)
		return Error{Message: internalErr.message, Path: fe.Path, Extensions: internalErr.Extensions()}
	}
	// 语法、校验、变量类型错误来自请求本身
	return Error{Message: fe.Message, Extensions: map[string]interface{}{"code": "VALIDATION_ERROR"}}
}

func errorResponse(message, code string) Response {
	return Response{Errors: []Error{{
		Message:    message,
		Extensions: map[string]interface{}{"code": code},
	}}}
}
