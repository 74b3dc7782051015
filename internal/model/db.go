package model

import (
	"time"

	"gorm.io/datatypes"
)

// Equipment 按日期记录的单类型装备损失（每个 国家+类型+日期 一条）
type Equipment struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Country   string `gorm:"column:country;type:varchar(32);not null;uniqueIndex:uq_equipment_country_type_date;comment:国家" json:"country"`
	Type      string `gorm:"column:type;type:varchar(128);not null;uniqueIndex:uq_equipment_country_type_date;comment:装备类型" json:"type"`
	Destroyed int    `gorm:"column:destroyed;type:int;not null;comment:被摧毁数量" json:"destroyed"`
	Abandoned int    `gorm:"column:abandoned;type:int;not null;comment:被遗弃数量" json:"abandoned"`
	Captured  int    `gorm:"column:captured;type:int;not null;comment:被缴获数量" json:"captured"`
	Damaged   int    `gorm:"column:damaged;type:int;not null;comment:受损数量" json:"damaged"`
	Total     int    `gorm:"column:total;type:int;not null;comment:来源统计的合计" json:"total"`
	Date      string `gorm:"column:date;type:varchar(10);not null;uniqueIndex:uq_equipment_country_type_date;comment:记录日期 YYYY-MM-DD" json:"date"`
}

// AllEquipment 单类型装备的累计总量（无日期维度，每次导入整体覆盖）
type AllEquipment struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Country   string `gorm:"column:country;type:varchar(32);not null;uniqueIndex:uq_all_equipment_country_type;comment:国家" json:"country"`
	Type      string `gorm:"column:type;type:varchar(128);not null;uniqueIndex:uq_all_equipment_country_type;comment:装备类型" json:"type"`
	Destroyed int    `gorm:"column:destroyed;type:int;not null;comment:被摧毁数量" json:"destroyed"`
	Abandoned int    `gorm:"column:abandoned;type:int;not null;comment:被遗弃数量" json:"abandoned"`
	Captured  int    `gorm:"column:captured;type:int;not null;comment:被缴获数量" json:"captured"`
	Damaged   int    `gorm:"column:damaged;type:int;not null;comment:受损数量" json:"damaged"`
	Total     int    `gorm:"column:total;type:int;not null;comment:来源统计的合计" json:"total"`
}

// System 单次上报的武器系统损失实例（国家+系统+URL+日期 唯一）
type System struct {
	ID      uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Country string `gorm:"column:country;type:varchar(32);not null;uniqueIndex:uq_system_country_system_url_date;comment:国家" json:"country"`
	Origin  string `gorm:"column:origin;type:varchar(64);not null;comment:装备原产国" json:"origin"`
	System  string `gorm:"column:system;type:varchar(128);not null;uniqueIndex:uq_system_country_system_url_date;comment:武器系统名称" json:"system"`
	Status  string `gorm:"column:status;type:varchar(16);not null;comment:损失状态" json:"status"`
	URL     string `gorm:"column:url;type:varchar(512);not null;uniqueIndex:uq_system_country_system_url_date;comment:来源证据URL" json:"url"`
	Date    string `gorm:"column:date;type:varchar(10);not null;uniqueIndex:uq_system_country_system_url_date;comment:记录日期 YYYY-MM-DD" json:"date"`
}

// AllSystem 单个武器系统的累计总量
type AllSystem struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Country   string `gorm:"column:country;type:varchar(32);not null;uniqueIndex:uq_all_system_country_system;comment:国家" json:"country"`
	System    string `gorm:"column:system;type:varchar(128);not null;uniqueIndex:uq_all_system_country_system;comment:武器系统名称" json:"system"`
	Destroyed int    `gorm:"column:destroyed;type:int;not null;comment:被摧毁数量" json:"destroyed"`
	Abandoned int    `gorm:"column:abandoned;type:int;not null;comment:被遗弃数量" json:"abandoned"`
	Captured  int    `gorm:"column:captured;type:int;not null;comment:被缴获数量" json:"captured"`
	Damaged   int    `gorm:"column:damaged;type:int;not null;comment:受损数量" json:"damaged"`
	Total     int    `gorm:"column:total;type:int;not null;comment:来源统计的合计" json:"total"`
}

// ImportRun 单次导入的审计记录（手动/定时/首次回填均落一条）
type ImportRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	RunUUID    string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一运行ID" json:"run_uuid"`
	Entity     string         `gorm:"column:entity;type:varchar(32);not null;comment:导入的实体类型" json:"entity"`
	Mode       string         `gorm:"column:mode;type:varchar(16);not null;comment:导入模式：full/incremental" json:"mode"`
	Trigger    string         `gorm:"column:trigger;type:varchar(16);not null;comment:触发方式：manual/scheduled/backfill" json:"trigger"`
	Fetched    int            `gorm:"column:fetched;type:int;not null;comment:本次拉取行数" json:"fetched"`
	Skipped    int            `gorm:"column:skipped;type:int;not null;comment:按日期过滤掉的行数" json:"skipped"`
	Imported   int            `gorm:"column:imported;type:int;not null;comment:实际入库行数" json:"imported"`
	Status     string         `gorm:"column:status;type:varchar(16);not null;comment:运行结果：success/failed" json:"status"`
	Error      string         `gorm:"column:error;type:text;comment:失败原因" json:"error,omitempty"`
	Detail     datatypes.JSON `gorm:"column:detail;type:jsonb;comment:结果明细" json:"detail,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;type:timestamp;not null;comment:开始时间" json:"started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at;type:timestamp;not null;comment:结束时间" json:"finished_at"`
}

func (Equipment) TableName() string    { return "equipment" }
func (AllEquipment) TableName() string { return "all_equipment" }
func (System) TableName() string       { return "system" }
func (AllSystem) TableName() string    { return "all_system" }
func (ImportRun) TableName() string    { return "import_runs" }
