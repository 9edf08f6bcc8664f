package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-rental-api/internal/application/property"
	"github.com/go-rental-api/internal/domain"
	"github.com/go-rental-api/internal/pkg/validate"
	"github.com/go-rental-api/internal/transport/http/middleware"
)

// PropertyHandler handles listing endpoints.
type PropertyHandler struct {
	svc property.Service
}

func NewPropertyHandler(svc property.Service) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.ListVerified(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}

func (h *PropertyHandler) Featured(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.ListFeatured(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}

func (h *PropertyHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	props, err := h.svc.Search(r.Context(), domain.SearchFilter{
		Location:     q.Get("location"),
		PropertyType: q.Get("property_type"),
		PriceRange:   q.Get("price_range"),
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}

func (h *PropertyHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	props, err := h.svc.ListByLandlord(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(props))
}

// Detail serves anonymous and authenticated viewers alike.
func (h *PropertyHandler) Detail(w http.ResponseWriter, r *http.Request) {
	var viewer property.Viewer
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		viewer = property.Viewer{UserID: claims.UserID, Role: claims.Role}
	}
	d, err := h.svc.Detail(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Create accepts a multipart form: listing fields plus up to five "images" files.
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	in, err := propertyInputFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	uploads, closeAll, err := openUploads(r.MultipartForm.File["images"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable image upload")
		return
	}
	defer closeAll()

	p, err := h.svc.Submit(r.Context(), userID, in, uploads)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Update edits a listing; a rejected listing goes back to the verification queue.
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in domain.PropertyInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), userID, in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "property deleted"})
}

func (h *PropertyHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.svc.ListImages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newList(images))
}

func (h *PropertyHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "missing images field")
		return
	}
	uploads, closeAll, err := openUploads(files)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable image upload")
		return
	}
	defer closeAll()

	images, err := h.svc.AddImages(r.Context(), chi.URLParam(r, "id"), userID, uploads)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newList(images))
}

func (h *PropertyHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteImage(r.Context(), chi.URLParam(r, "imageID"), userID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "image deleted"})
}

// propertyInputFromForm reads the listing fields of a multipart form.
func propertyInputFromForm(r *http.Request) (domain.PropertyInput, error) {
	in := domain.PropertyInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		PropertyType:  r.FormValue("property_type"),
		Location:      r.FormValue("location"),
		AvailableFrom: r.FormValue("available_from"),
		Amenities: domain.Amenities{
			IsFurnished:        formBool(r, "is_furnished"),
			HasParking:         formBool(r, "has_parking"),
			HasBalcony:         formBool(r, "has_balcony"),
			HasSecurity:        formBool(r, "has_security"),
			HasBackupGenerator: formBool(r, "has_backup_generator"),
			HasInternet:        formBool(r, "has_internet"),
			PetFriendly:        formBool(r, "pet_friendly"),
		},
	}
	var err error
	if in.Price, err = formInt(r, "price"); err != nil {
		return in, err
	}
	if in.Bedrooms, err = formInt(r, "bedrooms"); err != nil {
		return in, err
	}
	if in.Bathrooms, err = formInt(r, "bathrooms"); err != nil {
		return in, err
	}
	if v := r.FormValue("area"); v != "" {
		if in.Area, err = strconv.ParseFloat(v, 64); err != nil {
			return in, errInvalidField("area")
		}
	}
	if v := r.FormValue("is_available"); v != "" {
		available := formBool(r, "is_available")
		in.IsAvailable = &available
	}
	return in, nil
}

func formInt(r *http.Request, field string) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errInvalidField(field)
	}
	return n, nil
}

// formBool accepts checkbox style values.
func formBool(r *http.Request, field string) bool {
	switch r.FormValue(field) {
	case "on", "true", "True", "1", "yes":
		return true
	}
	return false
}

type errInvalidField string

func (e errInvalidField) Error() string { return string(e) + " must be a number" }

// openUploads opens every file part. The returned func closes them all.
func openUploads(files []*multipart.FileHeader) ([]property.ImageUpload, func(), error) {
	opened := make([]multipart.File, 0, len(files))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	uploads := make([]property.ImageUpload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		opened = append(opened, f)
		uploads = append(uploads, property.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return uploads, closeAll, nil
}
