package domain

// Gender values accepted for customers and employees.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

type Customer struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Gender  string `db:"gender" json:"gender,omitempty"`
	Age     *int64 `db:"age" json:"age,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	Phone   string `db:"phone" json:"phone"`
}
