package metadata

/**
 * @brief A decoded image, always tightly packed RGBA8.
 */
type Image struct {
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image, Width*Height*4 bytes. */
	Pixels []uint8
}

/** @brief The number of bytes in the pixel buffer. */
func (i *Image) Size() uint64 {
	return uint64(i.Width) * uint64(i.Height) * 4
}

/** @brief Reports whether the pixel buffer matches the dimensions. */
func (i *Image) Valid() bool {
	return i.Width > 0 && i.Height > 0 && uint64(len(i.Pixels)) == i.Size()
}
