package api

import (
	"net/http"

	"OxyGent-Console/internal/system"
)

type inputDataRequest struct {
	InputData map[string]any `json:"input_data"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// handleAgentTest 的请求体本身即为测试输入。
func (s *Server) handleAgentTest(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if err := decodeOptionalJSON(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Agents.Test(r.Context(), r.PathValue("id"), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleToolTest(w http.ResponseWriter, r *http.Request) {
	var req inputDataRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Tools.Test(r.Context(), r.PathValue("id"), req.InputData)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleToolUpload(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.formFile(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.svc.Tools.UploadMCPServer(r.Context(), filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkflowRun(w http.ResponseWriter, r *http.Request) {
	var req inputDataRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.Workflows.Run(r.Context(), r.PathValue("id"), req.InputData)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWorkflowValidate(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Workflows.Validate(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMASStart(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.MAS.Start(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMASStop(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.MAS.Stop(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleMASQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	result, err := s.svc.MAS.Query(r.Context(), r.PathValue("id"), req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.System.GetConfig(r.Context()))
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch system.Config
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	cfg, err := s.svc.System.UpdateConfig(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.System.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	file, filename, err := s.formFile(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer file.Close()

	result, err := s.svc.System.Import(r.Context(), filename, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.System.Export(r.Context()))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.System.Download(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="oxygent-config.yaml"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.System.Restart(r.Context()))
}
