package registry

// loginData is the credential block of a declaration request
type loginData struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// declarationRequest is the body POSTed to the registry
type declarationRequest struct {
	LoginData   loginData `json:"login_data"`
	EntityTaxID string    `json:"otec"`
	DocType     string    `json:"djtype"`
	InputData   []string  `json:"input_data"`
}

// Response field names
const (
	fieldStatus     = "status"
	fieldData       = "data"
	fieldTaxID      = "RUT"
	fieldName       = "Nombre"
	fieldSessions   = "Sesiones"
	fieldDeclStatus = "Estado_Declaracion_Jurada"
	fieldCourseCode = "codigo_curso"
)
