package warehouse

type Configuration struct {
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	Database       string `validate:"required"`
	Host           string `validate:"required"`
	Port           uint   `validate:"required,gte=0"`
	SSLMode        string `yaml:"ssl-mode"`
	RuntimeTable   string `yaml:"runtime-table" validate:"required"`
	IncidentTable  string `yaml:"incident-table" validate:"required"`
	EquipmentClass string `yaml:"equipment-class" validate:"required"`
	ClassColumn    string `yaml:"class-column"`
	DateColumn     string `yaml:"date-column"`
	QueryTimeout   string `yaml:"query-timeout"`
}
