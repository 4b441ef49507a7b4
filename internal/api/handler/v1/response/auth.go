package response

type SignupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
