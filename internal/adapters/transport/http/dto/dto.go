package dto

type RegisterDTO struct {
	Email    string `json:"email"     validate:"required,email"`
	Password string `json:"password"  validate:"required,strongpwd"`
	FullName string `json:"full_name" validate:"max=100"`
	Role     string `json:"role"      validate:"required,oneof=seeker employer"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	AccessToken  string `json:"access_token"`
}

type ValidateDTO struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type LogoutDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	AccessToken  string `json:"access_token"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	ResetToken  string `json:"reset_token"  validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strongpwd"`
}

type ChangePasswordDTO struct {
	OldPassword       string `json:"old_password"        validate:"required"`
	NewPassword       string `json:"new_password"        validate:"required,strongpwd"`
	VerifyNewPassword string `json:"verify_new_password" validate:"required,eqfield=NewPassword"`
}

type UpdateProfileDTO struct {
	FullName string `json:"full_name" validate:"required,max=100"`
}

type ChangeRoleDTO struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role"    validate:"required,oneof=seeker employer admin"`
}

type ListUsersDTO struct {
	Skip  int `form:"skip"  validate:"min=0"`
	Limit int `form:"limit" validate:"min=0,max=100"`
}
