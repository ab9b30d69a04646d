// Package persistence implements every domain repository interface with
// GORM, grounded on the teacher's internal/adapters/persistence package:
// one GormXRepository{db *gorm.DB} per aggregate, JSON-as-text columns for
// slice fields, and model<->entity conversion functions kept alongside
// each repository.
package persistence

import (
	"time"
)

// FilamentModel represents the filaments table.
type FilamentModel struct {
	ID         string    `gorm:"column:id;primaryKey;size:36"`
	Material   string    `gorm:"column:material;not null;index:idx_filament_material"`
	Color      string    `gorm:"column:color"`
	ProfileID  string    `gorm:"column:profile_id;not null"`
	RemainingG float64   `gorm:"column:remaining_g;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (FilamentModel) TableName() string { return "filaments" }

// PrinterProfileModel represents the printer_profiles table.
type PrinterProfileModel struct {
	ID                 string  `gorm:"column:id;primaryKey;size:36"`
	Name               string  `gorm:"column:name;not null"`
	BuildVolumeXMM     float64 `gorm:"column:build_volume_x_mm;not null"`
	BuildVolumeYMM     float64 `gorm:"column:build_volume_y_mm;not null"`
	BuildVolumeZMM     float64 `gorm:"column:build_volume_z_mm;not null"`
	SupportedMaterials string  `gorm:"column:supported_materials;type:text"` // JSON array
}

func (PrinterProfileModel) TableName() string { return "printer_profiles" }

// MaterialProfileModel represents the material_profiles table.
type MaterialProfileModel struct {
	ID          string `gorm:"column:id;primaryKey;size:36"`
	Name        string `gorm:"column:name;not null"`
	NozzleTempC int    `gorm:"column:nozzle_temp_c;not null"`
	BedTempC    int    `gorm:"column:bed_temp_c;not null"`
	FlowRatePct int    `gorm:"column:flow_rate_pct;not null"`
	MaxSpeedMMs int    `gorm:"column:max_speed_mms;not null"`
}

func (MaterialProfileModel) TableName() string { return "material_profiles" }

// PrintProfileModel represents the print_profiles table.
type PrintProfileModel struct {
	ID                string  `gorm:"column:id;primaryKey;size:36"`
	Name              string  `gorm:"column:name;not null"`
	MaterialProfileID string  `gorm:"column:material_profile_id;not null"`
	PrinterProfileID  string  `gorm:"column:printer_profile_id;not null"`
	LayerHeightMM     float64 `gorm:"column:layer_height_mm;not null"`
	InfillPct         int     `gorm:"column:infill_pct;not null"`
	SupportsEnabled   bool    `gorm:"column:supports_enabled;not null;default:false"`
}

func (PrintProfileModel) TableName() string { return "print_profiles" }

// SliceConfigurationModel represents the slice_configurations table.
type SliceConfigurationModel struct {
	ID                string  `gorm:"column:id;primaryKey;size:36"`
	Name              string  `gorm:"column:name;not null"`
	PrintProfileID    string  `gorm:"column:print_profile_id;not null"`
	SupportDensityPct int     `gorm:"column:support_density_pct;not null"`
	RaftEnabled       bool    `gorm:"column:raft_enabled;not null;default:false"`
	BrimWidthMM       float64 `gorm:"column:brim_width_mm;not null"`
	QuotingProfile    bool    `gorm:"column:quoting_profile;not null;default:false;index:idx_slice_config_quoting"`
}

func (SliceConfigurationModel) TableName() string { return "slice_configurations" }

// OrderModel represents the orders table.
type OrderModel struct {
	ID       string    `gorm:"column:id;primaryKey;size:36"`
	Client   string    `gorm:"column:client;not null"`
	DueDate  time.Time `gorm:"column:due_date;not null"`
	Priority int       `gorm:"column:priority;not null"`
}

func (OrderModel) TableName() string { return "orders" }

// GeometryModelModel represents the geometry_models table.
type GeometryModelModel struct {
	ID       string  `gorm:"column:id;primaryKey;size:36"`
	FileName string  `gorm:"column:file_name;not null"`
	SizeXMM  float64 `gorm:"column:size_x_mm;not null"`
	SizeYMM  float64 `gorm:"column:size_y_mm;not null"`
	SizeZMM  float64 `gorm:"column:size_z_mm;not null"`
}

func (GeometryModelModel) TableName() string { return "geometry_models" }

// SliceJobModel represents the slice_jobs table.
type SliceJobModel struct {
	ID                   string  `gorm:"column:id;primaryKey;size:36"`
	SliceConfigurationID string  `gorm:"column:slice_configuration_id;not null"`
	GeometryModelIDs     string  `gorm:"column:geometry_model_ids;type:text"` // JSON array
	SaveProgram          bool    `gorm:"column:save_program;not null;default:false"`
	Ready                bool    `gorm:"column:ready;not null;default:false"`
	EstimatedBuildTimeS  int64   `gorm:"column:estimated_build_time_s;not null;default:0"`
	EstimatedWeightG     float64 `gorm:"column:estimated_weight_g;not null;default:0"`
	ProgramFile          string  `gorm:"column:program_file"`
	ErrorLog             string  `gorm:"column:error_log;type:text"`
}

func (SliceJobModel) TableName() string { return "slice_jobs" }

// PieceModel represents the pieces table.
type PieceModel struct {
	ID                     string  `gorm:"column:id;primaryKey;size:36"`
	OrderID                string  `gorm:"column:order_id;not null;index:idx_piece_order"`
	Copies                 int     `gorm:"column:copies;not null"`
	Scale                  float64 `gorm:"column:scale;not null"`
	Materials              string  `gorm:"column:materials;type:text"` // JSON array
	Colors                 string  `gorm:"column:colors;type:text"`    // JSON array
	GeometryModelID        *string `gorm:"column:geometry_model_id"`
	ProgramFile            string  `gorm:"column:program_file"`
	PrintSettingsProfileID *string `gorm:"column:print_settings_profile_id"`
	SliceJobID             string  `gorm:"column:slice_job_id"`
	Cancelled              bool    `gorm:"column:cancelled;not null;default:false;index:idx_piece_cancelled"`
}

func (PieceModel) TableName() string { return "pieces" }

// UnitPieceModel represents the unit_pieces table.
type UnitPieceModel struct {
	ID         string `gorm:"column:id;primaryKey;size:36"`
	PieceID    string `gorm:"column:piece_id;not null;index:idx_unit_piece_piece"`
	PrintJobID string `gorm:"column:print_job_id;not null"`
}

func (UnitPieceModel) TableName() string { return "unit_pieces" }

// PrinterModel represents the printers table.
type PrinterModel struct {
	ID               string  `gorm:"column:id;primaryKey;size:36"`
	Name             string  `gorm:"column:name;not null"`
	PrinterProfileID string  `gorm:"column:printer_profile_id;not null"`
	LoadedFilamentID *string `gorm:"column:loaded_filament_id"`
	Disabled         bool    `gorm:"column:disabled;not null;default:false;index:idx_printer_disabled"`
}

func (PrinterModel) TableName() string { return "printers" }

// DeviceControllerModel represents the device_controllers table.
type DeviceControllerModel struct {
	ID                string `gorm:"column:id;primaryKey;size:36"`
	PrinterID         string `gorm:"column:printer_id;not null;uniqueIndex:idx_controller_printer"`
	EndpointURL       string `gorm:"column:endpoint_url;not null"`
	APIKey            string `gorm:"column:api_key;not null"`
	ActiveTaskID      *string `gorm:"column:active_task_id"`
	Locked            bool   `gorm:"column:locked;not null;default:false"`
	NotificationCount int    `gorm:"column:notification_count;not null;default:0"`

	StatusFlags       string  `gorm:"column:status_flags;type:text"` // JSON printer.Flags
	StatusNozzleC     float64 `gorm:"column:status_nozzle_c;not null;default:0"`
	StatusBedC        float64 `gorm:"column:status_bed_c;not null;default:0"`
	StatusJobFileName string  `gorm:"column:status_job_file_name"`
	StatusJobTotalS   int64   `gorm:"column:status_job_total_s;not null;default:0"`
	StatusJobLeftS    *int64  `gorm:"column:status_job_left_s"`
	StatusUpdatedAt   time.Time `gorm:"column:status_updated_at"`
}

func (DeviceControllerModel) TableName() string { return "device_controllers" }

// FilamentChangeModel represents the filament_changes table.
type FilamentChangeModel struct {
	ID            string     `gorm:"column:id;primaryKey;size:36"`
	NewFilamentID string     `gorm:"column:new_filament_id;not null"`
	DeviceTaskID  string     `gorm:"column:device_task_id;not null;index:idx_fc_task"`
	Confirmed     bool       `gorm:"column:confirmed;not null;default:false;index:idx_fc_confirmed"`
	ConfirmedAt   *time.Time `gorm:"column:confirmed_at"`
}

func (FilamentChangeModel) TableName() string { return "filament_changes" }

// DeviceTaskModel represents the device_tasks table.
type DeviceTaskModel struct {
	ID             string  `gorm:"column:id;primaryKey;size:36"`
	ControllerID   string  `gorm:"column:controller_id;not null;index:idx_task_controller"`
	Kind           string  `gorm:"column:kind;not null"`
	ProgramFile    string  `gorm:"column:program_file"`
	SliceJobID     *string `gorm:"column:slice_job_id"`
	CommandScript  string  `gorm:"column:command_script;type:text"` // JSON array
	Dependency     *string `gorm:"column:dependency"`
	Sent           bool    `gorm:"column:sent;not null;default:false"`
	RemoteFilename string  `gorm:"column:remote_filename"`
	Claimed        bool    `gorm:"column:claimed;not null;default:false"`

	Status     string     `gorm:"column:status;not null;index:idx_task_status"`
	CreatedAt  time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;not null"`
	StartedAt  *time.Time `gorm:"column:started_at"`
	StoppedAt  *time.Time `gorm:"column:stopped_at"`
	LastErrMsg string     `gorm:"column:last_err_msg;type:text"`
}

func (DeviceTaskModel) TableName() string { return "device_tasks" }

// PrintJobModel represents the print_jobs table.
type PrintJobModel struct {
	ID               string     `gorm:"column:id;primaryKey;size:36"`
	DeviceTaskID     string     `gorm:"column:device_task_id;not null;uniqueIndex:idx_job_task"`
	FilamentID       string     `gorm:"column:filament_id;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	EstimatedEndTime time.Time  `gorm:"column:estimated_end_time;not null"`
	Success          *bool      `gorm:"column:success"`
	EndTime          *time.Time `gorm:"column:end_time"`
}

func (PrintJobModel) TableName() string { return "print_jobs" }

// PrintJobHistoryModel is the append-only ledger job.HistoryRepository
// writes to, grounded on the teacher's market_price_history_repository
// append-only pattern.
type PrintJobHistoryModel struct {
	ID               int        `gorm:"column:id;primaryKey;autoIncrement"`
	PrinterID        string     `gorm:"column:printer_id;not null;index:idx_job_history_printer_time"`
	PrintJobID       string     `gorm:"column:print_job_id;not null"`
	DeviceTaskID     string     `gorm:"column:device_task_id;not null"`
	FilamentID       string     `gorm:"column:filament_id;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	EstimatedEndTime time.Time  `gorm:"column:estimated_end_time;not null"`
	Success          *bool      `gorm:"column:success"`
	EndTime          *time.Time `gorm:"column:end_time"`
	RecordedAt       time.Time  `gorm:"column:recorded_at;not null;index:idx_job_history_printer_time"`
}

func (PrintJobHistoryModel) TableName() string { return "print_job_history" }

// ScheduleModel represents the schedules table.
type ScheduleModel struct {
	ID            string     `gorm:"column:id;primaryKey;size:36"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	FinishedAt    *time.Time `gorm:"column:finished_at"`
	SolverStatus  string     `gorm:"column:solver_status"`
	Diagnostics   string     `gorm:"column:diagnostics;type:text"`
	LaunchedTasks string     `gorm:"column:launched_tasks;type:text"` // JSON array
}

func (ScheduleModel) TableName() string { return "schedules" }

// ScheduleEntryModel represents the schedule_entries table.
type ScheduleEntryModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	ScheduleID   string    `gorm:"column:schedule_id;not null;index:idx_entry_schedule"`
	PrinterID    string    `gorm:"column:printer_id;not null;index:idx_entry_printer"`
	PieceID      *string   `gorm:"column:piece_id"`
	DeviceTaskID *string   `gorm:"column:device_task_id"`
	Start        time.Time `gorm:"column:start;not null"`
	End          time.Time `gorm:"column:end;not null"`
	Deadline     time.Time `gorm:"column:deadline;not null"`
}

func (ScheduleEntryModel) TableName() string { return "schedule_entries" }

// ScheduleEntryHistoryModel is the append-only ledger
// schedule.EntryHistoryRepository writes to.
type ScheduleEntryHistoryModel struct {
	ID           int       `gorm:"column:id;primaryKey;autoIncrement"`
	PrinterID    string    `gorm:"column:printer_id;not null;index:idx_entry_history_printer"`
	ScheduleID   string    `gorm:"column:schedule_id;not null"`
	PieceID      *string   `gorm:"column:piece_id"`
	DeviceTaskID *string   `gorm:"column:device_task_id"`
	Start        time.Time `gorm:"column:start;not null"`
	End          time.Time `gorm:"column:end;not null"`
	Deadline     time.Time `gorm:"column:deadline;not null"`
	RecordedAt   time.Time `gorm:"column:recorded_at;not null;index:idx_entry_history_printer"`
}

func (ScheduleEntryHistoryModel) TableName() string { return "schedule_entry_history" }
