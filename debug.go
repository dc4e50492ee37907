package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/gorilla/mux"
	"github.com/maxsupermanhd/RegionMap/chunkStorage"
	"github.com/maxsupermanhd/RegionMap/lib/nbtwalk"
)

// chunkInfoHandler dumps raw tag tree and decoded form of a stored chunk.
func chunkInfoHandler(w http.ResponseWriter, r *http.Request) (int, string) {
	params := mux.Vars(r)
	wname, dname := params["world"], params["dim"]
	cx, err := strconv.Atoi(params["cx"])
	if err != nil {
		return http.StatusBadRequest, "Bad cx: " + err.Error()
	}
	cz, err := strconv.Atoi(params["cz"])
	if err != nil {
		return http.StatusBadRequest, "Bad cz: " + err.Error()
	}
	s, err := findWorldStorage(wname)
	if err != nil {
		return tileErrorStatus(err), err.Error()
	}
	raw, err := s.GetChunkRaw(wname, dname, cx, cz)
	if err != nil {
		return tileErrorStatus(err), err.Error()
	}
	if raw == nil {
		return http.StatusNotFound, "Chunk not found"
	}
	dat, err := chunkStorage.Decompress(raw)
	if err != nil {
		return http.StatusInternalServerError, "Failed to decompress chunk: " + err.Error()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	tree, err := nbtwalk.Dump(dat)
	if err != nil {
		tree += "\nWalk failed: " + err.Error() + "\n"
	}
	decoded := ""
	c, err := chunkStorage.DecodeChunkNBT(dat)
	if err != nil {
		decoded = "Decode failed: " + err.Error()
	} else {
		decoded = spew.Sdump(c)
	}
	return http.StatusOK, fmt.Sprintf("Chunk %d %d of %s:%s, %d bytes compressed, %d raw\n\n%s\n%s",
		cx, cz, wname, dname, len(raw), len(dat), tree, decoded)
}
