package api

import (
	"context"
	"net/http"
)

// resourceService 是四类注册表共有的增删改查能力。
type resourceService[T any, C any, U any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, in C) (T, error)
	Get(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, id string, patch U) (T, error)
	Delete(ctx context.Context, id string) error
}

// mountCRUD 为 base 挂载列表、创建、查询、更新与删除路由。集合路径同时接受带与不带结尾斜杠。
func mountCRUD[T any, C any, U any](mux *http.ServeMux, base string, s *Server, svc resourceService[T, C, U]) {
	list := func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
	create := func(w http.ResponseWriter, r *http.Request) {
		var in C
		if err := decodeJSON(r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := svc.Create(r.Context(), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}

	mux.HandleFunc("GET "+base, list)
	mux.HandleFunc("GET "+base+"/{$}", list)
	mux.HandleFunc("POST "+base, create)
	mux.HandleFunc("POST "+base+"/{$}", create)

	mux.HandleFunc("GET "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})
	mux.HandleFunc("PUT "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		var patch U
		if err := decodeJSON(r, &patch); err != nil {
			s.writeError(w, r, err)
			return
		}
		rec, err := svc.Update(r.Context(), r.PathValue("id"), patch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})
	mux.HandleFunc("DELETE "+base+"/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
