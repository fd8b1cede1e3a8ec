package automodelertest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type user struct {
	fullname string
	password string
	projects map[string]*project
	run      *run
}

type project struct {
	Name    string `json:"name"`
	Dataset string `json:"dataset,omitempty"`
	Model   string `json:"model,omitempty"`
	Type    string `json:"type,omitempty"`
}

// run is the wizard state the backend keeps in the user's session.
type run struct {
	projectName   string
	filename      string
	learningType  string
	datasetType   string
	columns       []string
	preprocessing bool
	options       []string
	methods       url.Values
	modelType     string
	algo          string
	params        map[string]any
	selected      []string
	target        string
	trained       bool
}

// AddUser registers an account directly.
func (ms *MockServer) AddUser(username, password string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.users[username] = &user{fullname: username, password: password, projects: map[string]*project{}}
}

// AddProject stores a project for username, as if a run had been saved.
func (ms *MockServer) AddProject(username, name, dataset, model, kind string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	u := ms.users[username]
	if u == nil {
		return
	}
	u.projects[name] = &project{Name: name, Dataset: dataset, Model: model, Type: kind}
}

// Projects returns the project names stored for username.
func (ms *MockServer) Projects(username string) []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	u := ms.users[username]
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.projects))
	for n := range u.projects {
		names = append(names, n)
	}
	return names
}

// currentUser returns the user owning the request's session. ms.mu must be held.
func (ms *MockServer) currentUser(r *http.Request) (string, *user) {
	ck, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", nil
	}
	name, ok := ms.sessions[ck.Value]
	if !ok {
		return "", nil
	}
	return name, ms.users[name]
}

func (ms *MockServer) route(w http.ResponseWriter, r *http.Request) {
	switch routeKey(r.Method, r.URL.Path) {
	case "POST /":
		ms.login(w, r)
		return
	case "POST /register":
		ms.register(w, r)
		return
	case "POST /logout":
		ms.logout(w, r)
		return
	case "GET /api/dataset_preview":
		ms.predefinedPreview(w, r)
		return
	case "POST /api/generate_preview":
		ms.generatedPreview(w, r)
		return
	case "GET /get_algorithm_doc":
		ms.algorithmDoc(w, r)
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, u := ms.currentUser(r)
	if u == nil {
		if ms.RequireAuth {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		_, u = ms.anonymous()
	}

	if strings.HasPrefix(r.URL.Path, "/project/") && r.Method == http.MethodGet {
		ms.projectDetail(w, u, strings.TrimPrefix(r.URL.Path, "/project/"))
		return
	}

	switch routeKey(r.Method, r.URL.Path) {
	case "POST /preview_custom":
		ms.customPreview(w, r)
	case "POST /project":
		ms.createProject(w, r, u)
	case "GET /preprocessing/methods":
		ms.columnTypes(w, r, u)
	case "POST /preprocessing/apply":
		ms.applyPreprocessing(w, r, u)
	case "GET /preprocessing/results":
		ms.preprocessingResults(w, u)
	case "POST /preprocessing/save":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body><h1>Preprocessing report: %s</h1></body></html>", r.FormValue("project_name"))
	case "POST /select_type":
		ms.selectType(w, r, u)
	case "GET /select_features":
		ms.featuresPage(w, u)
	case "POST /select_features":
		ms.submitFeatures(w, r, u)
	case "GET /train_model":
		ms.train(w, u)
	case "GET /api/evaluate":
		ms.evaluate(w, u)
	case "POST /plot_results":
		ms.plot(w, u)
	case "GET /dashboard":
		ms.dashboard(w, u)
	case "POST /delete":
		delete(u.projects, r.FormValue("project_name"))
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	case "POST /save":
		ms.save(w, u)
	case "GET /predict_page":
		writeJSON(w, http.StatusOK, map[string]any{"features": []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}})
	case "POST /predict":
		ms.predict(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

// anonymous returns a shared user for servers that do not require auth.
func (ms *MockServer) anonymous() (string, *user) {
	const name = "anonymous"
	u := ms.users[name]
	if u == nil {
		u = &user{fullname: name, projects: map[string]*project{}}
		ms.users[name] = u
	}
	return name, u
}

func (ms *MockServer) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid request"})
		return
	}

	ms.mu.Lock()
	u := ms.users[creds.Username]
	if u == nil || u.password != creds.Password {
		ms.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "error", "message": "Invalid username or password"})
		return
	}
	ms.nextToken++
	token := "token-" + strconv.Itoa(ms.nextToken)
	ms.sessions[token] = creds.Username
	ms.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: token, Path: "/", HttpOnly: true})
	// The backend spells the status this way.
	writeJSON(w, http.StatusOK, map[string]string{"status": "sucess", "message": "Login successful"})
}

func (ms *MockServer) register(w http.ResponseWriter, r *http.Request) {
	var reg struct {
		Fullname string `json:"fullname"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Username == "" || reg.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "All fields are required"})
		return
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.users[reg.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Username already exists"})
		return
	}
	ms.users[reg.Username] = &user{fullname: reg.Fullname, password: reg.Password, projects: map[string]*project{}}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Account created"})
}

func (ms *MockServer) logout(w http.ResponseWriter, r *http.Request) {
	if ck, err := r.Cookie(SessionCookieName); err == nil {
		ms.mu.Lock()
		delete(ms.sessions, ck.Value)
		ms.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (ms *MockServer) customPreview(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("dataset")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer f.Close()
	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".csv") {
		writeJSON(w, http.StatusOK, map[string]any{"preview": IrisPreview()})
		return
	}
	preview, err := csvPreview(csv.NewReader(f), 5)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unable to read file: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preview": preview})
}

func (ms *MockServer) predefinedPreview(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("dataset")
	p, ok := PredefinedPreview(name)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Dataset inconnu: " + name})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (ms *MockServer) generatedPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Algorithm string             `json:"algorithm"`
		Params    map[string]float64 `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	p, ok := GeneratedPreview(req.Algorithm, req.Params)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Algorithme de génération inconnu"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (ms *MockServer) createProject(w http.ResponseWriter, r *http.Request, u *user) {
	name := r.FormValue("project_name")
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Please enter a project name."})
		return
	}
	rn := &run{
		projectName:   name,
		learningType:  r.FormValue("learning_type"),
		datasetType:   r.FormValue("dataset_type"),
		preprocessing: r.FormValue("preprocessing") == "true",
		options:       r.Form["preprocessing_options[]"],
	}

	var preview map[string]any
	switch rn.datasetType {
	case "custom":
		f, hdr, err := r.FormFile("dataset")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "No file uploaded."})
			return
		}
		f.Close()
		rn.filename = hdr.Filename
		rn.columns = IrisPreview()["columns"].([]string)
	case "predefined":
		ds := r.FormValue("predefined_dataset")
		p, ok := PredefinedPreview(ds)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Unknown dataset."})
			return
		}
		rn.filename = ds + ".csv"
		rn.columns = p["columns"].([]string)
		preview = p
	case "create":
		algo := r.FormValue("create_algorithm")
		params := map[string]float64{}
		for k, v := range r.Form {
			if strings.HasPrefix(k, "param_") && len(v) > 0 {
				if f, err := strconv.ParseFloat(v[0], 64); err == nil {
					params[strings.TrimPrefix(k, "param_")] = f
				}
			}
		}
		p, ok := GeneratedPreview(algo, params)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Unknown generation algorithm."})
			return
		}
		rn.filename = algo + "_generated.csv"
		rn.columns = p["columns"].([]string)
		preview = p
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Invalid dataset type."})
		return
	}

	u.run = rn
	u.projects[name] = &project{Name: name, Dataset: rn.filename}

	redirect := "/select_type"
	if rn.learningType == "preprocessing" || rn.preprocessing {
		redirect = "/preprocessing/methods"
	}
	body := map[string]any{
		"status":   "success",
		"message":  "Project created successfully",
		"filename": rn.filename,
		"redirect": redirect,
	}
	if preview != nil {
		body["preview"] = preview
	}
	writeJSON(w, http.StatusOK, body)
}

func (ms *MockServer) columnTypes(w http.ResponseWriter, r *http.Request, u *user) {
	if u.run == nil {
		http.Redirect(w, r, "/project", http.StatusFound)
		return
	}
	types := make(map[string]string, len(u.run.columns))
	for _, c := range u.run.columns {
		kind := "numeric"
		if c == "species" || c == "label" {
			kind = "categorical"
		}
		types[c] = kind
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_name": u.run.projectName,
		"filename":     u.run.filename,
		"columns":      u.run.columns,
		"column_types": types,
	})
}

func (ms *MockServer) applyPreprocessing(w http.ResponseWriter, r *http.Request, u *user) {
	methods := r.Form["preprocessing_methods"]
	if u.run == nil || len(methods) == 0 {
		w.Header().Set("Location", "/preprocessing/methods")
		w.WriteHeader(http.StatusFound)
		return
	}
	u.run.methods = url.Values{}
	for k, v := range r.Form {
		u.run.methods[k] = v
	}
	w.Header().Set("Location", "/preprocessing/results")
	w.WriteHeader(http.StatusFound)
}

func (ms *MockServer) preprocessingResults(w http.ResponseWriter, u *user) {
	if u.run == nil || u.run.methods == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "No preprocessing applied"})
		return
	}
	applied := make([]map[string]any, 0)
	for _, m := range u.run.methods["preprocessing_methods"] {
		applied = append(applied, map[string]any{"name": m, "params": map[string]string{}})
	}
	preview := IrisPreview()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": "preprocessed_" + u.run.filename,
		"columns":  u.run.columns,
		"stats": map[string]any{
			"rows":           150,
			"columns":        len(u.run.columns),
			"missing_values": 0,
			"memory_usage":   "0.01 MB",
		},
		"applied_methods": applied,
		"visualizations": []map[string]string{
			{"title": "Normalization", "image_path": "/static/projects/normalization.png"},
		},
		"preview_data": preview["data"],
	})
}

func (ms *MockServer) selectType(w http.ResponseWriter, r *http.Request, u *user) {
	if u.run == nil {
		http.Redirect(w, r, "/project", http.StatusFound)
		return
	}
	if r.FormValue("model_type") == "" {
		http.Redirect(w, r, "/select_type", http.StatusFound)
		return
	}
	u.run.modelType = r.FormValue("model_type")
	u.run.algo = r.FormValue("algo")
	var doc struct {
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(r.FormValue("algorithm_parameters")), &doc); err == nil {
		u.run.params = doc.Parameters
	}
	http.Redirect(w, r, "/select_features", http.StatusFound)
}

func (ms *MockServer) featuresPage(w http.ResponseWriter, u *user) {
	if u.run == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "No active project"})
		return
	}
	stats := map[string]map[string]float64{}
	for _, c := range u.run.columns {
		stats[c] = map[string]float64{"count": 150, "mean": 3.5, "std": 1.2, "min": 0.1, "25%": 1.6, "50%": 3.2, "75%": 5.1, "max": 7.9}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_name":  u.run.projectName,
		"filename":      u.run.filename,
		"model_type":    u.run.modelType,
		"algo":          u.run.algo,
		"learning_type": u.run.learningType,
		"features":      u.run.columns,
		"stats":         stats,
		"params_dict":   u.run.params,
	})
}

func (ms *MockServer) submitFeatures(w http.ResponseWriter, r *http.Request, u *user) {
	if u.run == nil {
		http.Redirect(w, r, "/project", http.StatusFound)
		return
	}
	selected := strings.Split(r.FormValue("selected_features"), ",")
	target := r.FormValue("target_feature")
	if u.run.learningType == "supervised" && target == "" {
		http.Redirect(w, r, "/select_features", http.StatusFound)
		return
	}
	u.run.selected = selected
	u.run.target = target
	http.Redirect(w, r, "/train_model", http.StatusFound)
}

func (ms *MockServer) train(w http.ResponseWriter, u *user) {
	rn := u.run
	if rn == nil || rn.algo == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Erreur d'entraînement : aucun algorithme"})
		return
	}
	rn.trained = true
	pairs := []string{"(1.2,1.5)", "(3.0,2.9)", "(0.7,0.6)"}
	if rn.learningType == "unsupervised" {
		pairs = []string{"(0,0)", "(1,1)", "(-1,-1)"}
	}
	if p := u.projects[rn.projectName]; p != nil {
		p.Model = rn.algo
		p.Type = rn.modelType
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"model_info": map[string]any{
			"project_name":          rn.projectName,
			"filename":              rn.filename,
			"model_type":            rn.modelType,
			"algo":                  rn.algo,
			"learning_type":         rn.learningType,
			"features":              rn.selected,
			"predictions_values":    pairs,
			"params_dict":           rn.params,
			"preprocessing_options": rn.options,
		},
	})
}

func (ms *MockServer) evaluate(w http.ResponseWriter, u *user) {
	rn := u.run
	if rn == nil || !rn.trained {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Modèle non entraîné."})
		return
	}
	var metrics any
	switch {
	case rn.modelType == "regression":
		metrics = map[string]float64{"mae": 0.12, "mse": 0.03, "score": 0.97}
	case rn.modelType == "classification":
		metrics = map[string]float64{"accuracy": 0.96, "precision": 0.95, "recall": 0.96, "f1_score": 0.955}
	default:
		metrics = map[string]any{"silhouette": 0.55, "calinski_harabasz": 561.6, "davies_bouldin": "Non calculable", "n_clusters": 3}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_name":  rn.projectName,
		"algo":          rn.algo,
		"model_type":    rn.modelType,
		"learning_type": rn.learningType,
		"metrics":       metrics,
	})
}

func (ms *MockServer) plot(w http.ResponseWriter, u *user) {
	rn := u.run
	if rn == nil || !rn.trained {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Modèle non entraîné."})
		return
	}
	var data map[string]any
	title := "Unsupervised Clusters"
	switch rn.modelType {
	case "regression":
		title = "Regression Error Curve"
		data = map[string]any{
			"type": "regression", "title": "Courbe de différence Y_TEST vs Y_PRED",
			"y_test": []float64{1.5, 2.9, 0.6}, "predictions": []float64{1.2, 3.0, 0.7},
		}
	case "classification":
		title = "Classification Clusters"
		data = map[string]any{
			"type": "classification", "title": "Clusters de Classification",
			"x_pca_0": []float64{0.1, 0.5, 0.9}, "x_pca_1": []float64{1.0, 0.4, 0.2}, "labels": []int{0, 1, 1},
		}
	default:
		data = map[string]any{
			"type": "clustering", "title": "Clusters Non Supervisés",
			"x_pca_0": []float64{0.1, 0.5, 0.9}, "x_pca_1": []float64{1.0, 0.4, 0.2}, "labels": []int{0, 1, -1},
		}
	}
	encoded, _ := json.Marshal(data)
	writeJSON(w, http.StatusOK, map[string]any{"plot_data": string(encoded), "plot_title": title})
}

func (ms *MockServer) dashboard(w http.ResponseWriter, u *user) {
	list := make([]*project, 0, len(u.projects))
	for _, p := range u.projects {
		list = append(list, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": list})
}

func (ms *MockServer) projectDetail(w http.ResponseWriter, u *user, name string) {
	name, _ = url.PathUnescape(name)
	p := u.projects[name]
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Projet introuvable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p})
}

func (ms *MockServer) save(w http.ResponseWriter, u *user) {
	rn := u.run
	if rn == nil || !rn.trained {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Erreur : projet, fichier, algorithme ou type de modèle non spécifié."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"save":         "Modèle sauvegardé avec succès!",
		"project_name": rn.projectName,
		"algo":         rn.algo,
		"model_type":   rn.modelType,
		"model_path":   "projects/" + rn.projectName + "/models/" + rn.algo + "_model.pkl",
		"model_params": rn.params,
	})
}

func (ms *MockServer) predict(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("project_name") == "" || r.FormValue("algo") == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Informations manquantes pour la prédiction."})
		return
	}
	sum := 0.0
	for k, v := range r.Form {
		if strings.HasPrefix(k, "feature_") && len(v) > 0 {
			f, err := strconv.ParseFloat(v[0], 64)
			if err != nil {
				writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Valeur invalide pour " + strings.TrimPrefix(k, "feature_")})
				return
			}
			sum += f
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "prediction": sum})
}
