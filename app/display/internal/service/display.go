package service

import (
	"context"
	"io"
	"strconv"
	"strings"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/report_flow/app/display/internal/domain"
	"github.com/iWorld-y/report_flow/app/display/internal/usecase"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/analysis"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/model"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/shell"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/view"
	"github.com/iWorld-y/report_flow/app/report_flow/pkg/workspace"
)

const maxUploadBytes = 32 << 20

type DisplayService struct {
	ws      *workspace.Workspace
	archive *usecase.ReportUseCase
	log     *log.Helper
}

func NewDisplayService(ws *workspace.Workspace, archive *usecase.ReportUseCase, logger log.Logger) *DisplayService {
	return &DisplayService{
		ws:      ws,
		archive: archive,
		log:     log.NewHelper(logger),
	}
}

// RegisterRoutes 注册 /api 下的全部接口
func (s *DisplayService) RegisterRoutes(srv *http.Server) {
	r := srv.Route("/api")
	r.GET("/state", s.GetState)
	r.POST("/navigate", s.Navigate)
	r.POST("/role", s.SetRole)
	r.POST("/extract", s.Extract)
	r.GET("/reports", s.ListReports)
	r.POST("/reports/{id}/select", s.SelectReport)
	r.DELETE("/reports/{id}", s.DeleteReport)
	r.GET("/summary", s.GetSummary)
	r.POST("/tracking", s.RunTracking)
	r.GET("/kpi", s.GetKPI)
	r.GET("/chat", s.GetChat)
	r.POST("/chat", s.SendChat)
	r.GET("/archive", s.ListArchive)
	r.GET("/archive/{id}", s.GetArchived)
}

type phaseReply struct {
	Phase view.Phase `json:"phase"`
	Error string     `json:"error,omitempty"`
}

type stateReply struct {
	State      shell.State               `json:"state"`
	Nav        []shell.NavEntry          `json:"nav"`
	Facts      shell.Facts               `json:"facts"`
	SelectedID string                    `json:"selectedId,omitempty"`
	Phases     map[shell.View]phaseReply `json:"phases"`
}

func (s *DisplayService) state() stateReply {
	st := s.ws.State()
	facts := s.ws.Facts()
	return stateReply{
		State:      st,
		Nav:        shell.Views(st, facts),
		Facts:      facts,
		SelectedID: s.ws.Store.SelectedID(),
		Phases: map[shell.View]phaseReply{
			shell.ViewExtract:  toPhase(s.ws.Extraction.Snapshot()),
			shell.ViewSummary:  toPhase(s.ws.Summary.Snapshot()),
			shell.ViewTracking: toPhase(s.ws.Tracking.Snapshot()),
			shell.ViewKPI:      toPhase(s.ws.KPI.Snapshot()),
			shell.ViewChat:     toPhase(s.ws.Chat.Snapshot()),
		},
	}
}

func toPhase(snap view.Snapshot) phaseReply {
	p := phaseReply{Phase: snap.Phase}
	if snap.Err != nil {
		p.Error = snap.Err.Error()
	}
	return p
}

func (s *DisplayService) GetState(ctx http.Context) error {
	return s.run(ctx, "/api/state", nil, func(context.Context) (any, error) {
		return s.state(), nil
	})
}

type navigateReq struct {
	View string `json:"view"`
}

func (s *DisplayService) Navigate(ctx http.Context) error {
	var req navigateReq
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest("VALIDATION", err.Error())
	}
	return s.run(ctx, "/api/navigate", &req, func(context.Context) (any, error) {
		v, ok := shell.ParseView(req.View)
		if !ok {
			return nil, kerrors.BadRequest("VALIDATION", "unknown view: "+req.View)
		}
		s.ws.Dispatch(shell.Navigate{View: v})
		return s.state(), nil
	})
}

type roleReq struct {
	Role string `json:"role"`
}

func (s *DisplayService) SetRole(ctx http.Context) error {
	var req roleReq
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest("VALIDATION", err.Error())
	}
	return s.run(ctx, "/api/role", &req, func(context.Context) (any, error) {
		role := model.Role(req.Role)
		if !role.Valid() {
			return nil, kerrors.BadRequest("VALIDATION", "unknown role: "+req.Role)
		}
		s.ws.Dispatch(shell.SetRole{Role: role})
		return s.state(), nil
	})
}

type extractReq struct {
	Meta  *string               `json:"meta"`
	Text  string                `json:"text"`
	URLs  []string              `json:"urls"`
	Files []analysis.Attachment `json:"files"`
}

type extractReply struct {
	Report model.StructuredReport `json:"report"`
	State  stateReply             `json:"state"`
}

func (s *DisplayService) Extract(ctx http.Context) error {
	var req extractReq
	if err := bindExtract(ctx, &req); err != nil {
		return kerrors.BadRequest("VALIDATION", err.Error())
	}
	return s.run(ctx, "/api/extract", &req, func(c context.Context) (any, error) {
		e := s.ws.Extraction
		if req.Meta != nil {
			if err := e.SetMeta(*req.Meta); err != nil {
				return nil, err
			}
		}
		if err := e.SetText(req.Text); err != nil {
			return nil, err
		}
		if err := e.SetFiles(req.Files); err != nil {
			return nil, err
		}
		if err := e.SetURLs(req.URLs); err != nil {
			return nil, err
		}

		report, err := s.ws.Extract(c)
		if err != nil {
			return nil, err
		}
		return extractReply{Report: report, State: s.state()}, nil
	})
}

// bindExtract 支持 JSON（附件 data 为 base64）和 multipart 表单两种请求
func bindExtract(ctx http.Context, req *extractReq) error {
	r := ctx.Request()
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return ctx.Bind(req)
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return err
	}
	form := r.MultipartForm
	if v := form.Value["meta"]; len(v) > 0 {
		req.Meta = &v[0]
	}
	if v := form.Value["text"]; len(v) > 0 {
		req.Text = v[0]
	}
	req.URLs = form.Value["url"]
	for _, fh := range form.File["file"] {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		req.Files = append(req.Files, analysis.Attachment{
			Name:     fh.Filename,
			MIMEType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return nil
}

type reportsReply struct {
	Reports       []view.HistoryEntry `json:"reports"`
	ConfirmDelete bool                `json:"confirmDelete"`
}

func (s *DisplayService) ListReports(ctx http.Context) error {
	return s.run(ctx, "/api/reports", nil, func(context.Context) (any, error) {
		return reportsReply{
			Reports:       s.ws.History.Entries(),
			ConfirmDelete: s.ws.History.ConfirmDelete(),
		}, nil
	})
}

func (s *DisplayService) SelectReport(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	return s.run(ctx, "/api/reports/select", id, func(context.Context) (any, error) {
		if err := s.ws.SelectReport(id); err != nil {
			return nil, err
		}
		return s.state(), nil
	})
}

func (s *DisplayService) DeleteReport(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	confirmed := ctx.Query().Get("confirm") == "true"
	return s.run(ctx, "/api/reports/delete", id, func(c context.Context) (any, error) {
		if err := s.ws.DeleteReport(c, id, confirmed); err != nil {
			return nil, err
		}
		s.log.Infof("report %s deleted", id)
		return s.state(), nil
	})
}

type summaryReply struct {
	ReportID     string               `json:"reportId"`
	Label        string               `json:"label"`
	Text         string               `json:"text"`
	StatusCounts map[model.Status]int `json:"statusCounts"`
}

func (s *DisplayService) GetSummary(ctx http.Context) error {
	refresh := ctx.Query().Get("refresh") == "true"
	return s.run(ctx, "/api/summary", nil, func(c context.Context) (any, error) {
		report, text, err := s.ws.SummarizeSelected(c, refresh)
		if err != nil {
			return nil, err
		}
		return summaryReply{
			ReportID:     report.ID,
			Label:        report.Label(),
			Text:         text,
			StatusCounts: s.ws.Summary.StatusCounts(),
		}, nil
	})
}

type trackingReq struct {
	TargetID string `json:"targetId"`
}

type trackingReply struct {
	TargetID string `json:"targetId"`
	Text     string `json:"text"`
}

func (s *DisplayService) RunTracking(ctx http.Context) error {
	var req trackingReq
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest("VALIDATION", err.Error())
	}
	return s.run(ctx, "/api/tracking", &req, func(c context.Context) (any, error) {
		if _, err := s.ws.Tracking.Run(c, req.TargetID); err != nil {
			return nil, err
		}
		target, text := s.ws.Tracking.Result()
		return trackingReply{TargetID: target, Text: text}, nil
	})
}

type kpiReply struct {
	Series []model.KpiTimeSeries `json:"series"`
	Empty  bool                  `json:"empty"`
}

func (s *DisplayService) GetKPI(ctx http.Context) error {
	return s.run(ctx, "/api/kpi", nil, func(c context.Context) (any, error) {
		series, err := s.ws.KPI.Activate(c)
		if err != nil {
			return nil, err
		}
		return kpiReply{Series: series, Empty: len(series) == 0}, nil
	})
}

type chatReq struct {
	Question string `json:"question"`
}

type chatReply struct {
	Reply      *model.ChatTurn  `json:"reply,omitempty"`
	Transcript []model.ChatTurn `json:"transcript"`
}

func (s *DisplayService) GetChat(ctx http.Context) error {
	return s.run(ctx, "/api/chat", nil, func(context.Context) (any, error) {
		return chatReply{Transcript: s.ws.Chat.Transcript()}, nil
	})
}

func (s *DisplayService) SendChat(ctx http.Context) error {
	var req chatReq
	if err := ctx.Bind(&req); err != nil {
		return kerrors.BadRequest("VALIDATION", err.Error())
	}
	return s.run(ctx, "/api/chat/send", &req, func(c context.Context) (any, error) {
		reply, err := s.ws.Chat.Send(c, req.Question)
		if err != nil {
			return nil, err
		}
		return chatReply{Reply: &reply, Transcript: s.ws.Chat.Transcript()}, nil
	})
}

type archiveReply struct {
	Reports  []*domain.ReportSummary `json:"reports"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
}

// ListArchive 分页浏览已保存的报告
func (s *DisplayService) ListArchive(ctx http.Context) error {
	page, err := queryInt(ctx, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(ctx, "pageSize")
	if err != nil {
		return err
	}
	page, pageSize = usecase.NormalizePage(page, pageSize)
	return s.run(ctx, "/api/archive", nil, func(c context.Context) (any, error) {
		reports, total, err := s.archive.List(c, page, pageSize)
		if err != nil {
			return nil, err
		}
		return archiveReply{Reports: reports, Total: total, Page: page, PageSize: pageSize}, nil
	})
}

// GetArchived 返回按组织单位分组的报告详情，不改变当前选中
func (s *DisplayService) GetArchived(ctx http.Context) error {
	id := ctx.Vars().Get("id")
	return s.run(ctx, "/api/archive/get", id, func(c context.Context) (any, error) {
		return s.archive.GetByID(c, id)
	})
}

func queryInt(ctx http.Context, name string) (int, error) {
	v := ctx.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, kerrors.BadRequest("VALIDATION", name+" must be an integer")
	}
	return n, nil
}

// run 经过服务端中间件执行 fn，并把领域错误映射为 HTTP 错误
func (s *DisplayService) run(ctx http.Context, operation string, in any, fn func(context.Context) (any, error)) error {
	http.SetOperation(ctx, operation)
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return fn(c)
	})
	out, err := h(ctx, in)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(200, out)
}
